package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/internal/cache"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/network"
)

const aniskipURL = "https://api.aniskip.com/v1/skip-times"

// Aniskip queries the AniSkip service for opening and ending intervals.
// Answers are kept in Cache when it is set, including "not found" ones.
type Aniskip struct {
	BaseURL string
	Client  *http.Client
	Cache   *cache.Store
}

// NewAniskip returns a client for the public AniSkip API backed by the response cache.
func NewAniskip() *Aniskip {
	return &Aniskip{BaseURL: aniskipURL, Client: network.Client, Cache: cache.Default()}
}

type aniskipResponse struct {
	Found   bool `json:"found"`
	Results []struct {
		Interval struct {
			StartTime float64 `json:"start_time"`
			EndTime   float64 `json:"end_time"`
		} `json:"interval"`
		SkipType string `json:"skip_type"`
	} `json:"results"`
}

// SkipTimes returns the opening (as intro) and ending (as outro) segments of an episode.
// Unknown episodes and service outages yield no segments and no error.
func (a *Aniskip) SkipTimes(ctx context.Context, malID string, episode int) ([]media.Segment, error) {
	key := cache.Key("aniskip", malID, strconv.Itoa(episode))
	if a.Cache != nil {
		var cached []media.Segment
		if a.Cache.Read(key, &cached) {
			return cached, nil
		}
	}

	segments, ok, err := a.fetch(ctx, malID, episode)
	if err != nil || !ok {
		return segments, err
	}

	if a.Cache != nil {
		if err := a.Cache.Write(key, segments); err != nil {
			log.Warnf("cache aniskip answer: %v", err)
		}
	}
	return segments, nil
}

// fetch queries the service. ok is false when the answer should not be cached.
func (a *Aniskip) fetch(ctx context.Context, malID string, episode int) (segments []media.Segment, ok bool, err error) {
	url := fmt.Sprintf("%s/%s/%d?types=op&types=ed", a.BaseURL, malID, episode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		log.Warnf("aniskip request failed: %v", err)
		return nil, false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("aniskip returned status %d", resp.StatusCode)
		return nil, resp.StatusCode == http.StatusNotFound, nil
	}

	var data aniskipResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, false, fmt.Errorf("parse aniskip response: %w", err)
	}

	if !data.Found {
		return nil, true, nil
	}

	for _, result := range data.Results {
		var typ media.SegmentType
		switch result.SkipType {
		case "op":
			typ = media.SegmentIntro
		case "ed":
			typ = media.SegmentOutro
		default:
			continue
		}

		seg := media.Segment{
			Type:  typ,
			Start: seconds(result.Interval.StartTime),
			End:   seconds(result.Interval.EndTime),
		}
		if seg.Valid() {
			segments = append(segments, seg)
		}
	}

	return segments, true, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
