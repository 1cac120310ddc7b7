package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/anisan-cli/finplay/media"
)

// MediaSegments fetches the timeline segments the server detected for an item.
func (c *Client) MediaSegments(ctx context.Context, itemID string) ([]media.Segment, error) {
	var resp struct {
		Items []struct {
			Type       string `json:"Type"`
			StartTicks int64  `json:"StartTicks"`
			EndTicks   int64  `json:"EndTicks"`
		} `json:"Items"`
	}
	if err := c.do(ctx, http.MethodGet, "/MediaSegments/"+url.PathEscape(itemID), nil, nil, &resp); err != nil {
		return nil, err
	}

	segments := make([]media.Segment, 0, len(resp.Items))
	for _, it := range resp.Items {
		seg := media.Segment{
			Type:  segmentType(it.Type),
			Start: media.FromTicks(it.StartTicks),
			End:   media.FromTicks(it.EndTicks),
		}
		if seg.Valid() {
			segments = append(segments, seg)
		}
	}
	return segments, nil
}

func segmentType(s string) media.SegmentType {
	switch media.SegmentType(s) {
	case media.SegmentIntro, media.SegmentOutro, media.SegmentRecap, media.SegmentPreview, media.SegmentCommercial:
		return media.SegmentType(s)
	default:
		return media.SegmentUnknown
	}
}
