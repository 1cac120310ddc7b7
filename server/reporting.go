package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/anisan-cli/finplay/media"
)

// PlaybackProgress is the payload of playback start and progress reports.
type PlaybackProgress struct {
	ItemID              string           `json:"ItemId"`
	PlayMethod          media.PlayMethod `json:"PlayMethod"`
	PlaySessionID       string           `json:"PlaySessionId,omitempty"`
	AudioStreamIndex    *int             `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int             `json:"SubtitleStreamIndex,omitempty"`
	IsPaused            bool             `json:"IsPaused"`
	IsMuted             bool             `json:"IsMuted"`
	CanSeek             bool             `json:"CanSeek"`
	PositionTicks       int64            `json:"PositionTicks"`
	VolumeLevel         int              `json:"VolumeLevel"`
	RepeatMode          string           `json:"RepeatMode"`
	PlaybackOrder       string           `json:"PlaybackOrder"`
}

// PlaybackStop is the payload of the final report of a playback session.
type PlaybackStop struct {
	ItemID        string `json:"ItemId"`
	PositionTicks int64  `json:"PositionTicks"`
	PlaySessionID string `json:"PlaySessionId,omitempty"`
	LiveStreamID  string `json:"LiveStreamId,omitempty"`
	Failed        bool   `json:"Failed"`
}

// ReportStart announces the start of playback.
func (c *Client) ReportStart(ctx context.Context, p PlaybackProgress) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing", nil, p, nil)
}

// ReportProgress sends a periodic progress update.
func (c *Client) ReportProgress(ctx context.Context, p PlaybackProgress) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing/Progress", nil, p, nil)
}

// ReportStop closes the server-side playback session.
func (c *Client) ReportStop(ctx context.Context, p PlaybackStop) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing/Stopped", nil, p, nil)
}

// MarkPlayed flags the item as watched for the signed-in user.
func (c *Client) MarkPlayed(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodPost, "/UserPlayedItems/"+url.PathEscape(itemID), nil, nil, nil)
}

// StopTranscode kills the server transcoding job of a play session.
func (c *Client) StopTranscode(ctx context.Context, deviceID, playSessionID string) error {
	query := url.Values{}
	query.Set("deviceId", deviceID)
	query.Set("playSessionId", playSessionID)
	return c.do(ctx, http.MethodDelete, "/Videos/ActiveEncodings", query, nil, nil)
}
