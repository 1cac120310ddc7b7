package history

import (
	"fmt"
	"time"

	"github.com/anisan-cli/finplay/media"
)

// Entry is the resume record of one item.
type Entry struct {
	ItemID        string    `json:"item_id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	PositionTicks int64     `json:"position_ticks"`
	Percentage    float64   `json:"percentage"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Position returns the stored resume position.
func (e *Entry) Position() time.Duration {
	return media.FromTicks(e.PositionTicks)
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s : %s (%.0f%%)", e.Name, e.Position().Truncate(time.Second), e.Percentage)
}

// entryKey identifies a source: its item id, or its URL for ad-hoc files.
func entryKey(src *media.Source) string {
	if src.Item.ID != "" {
		return src.Item.ID
	}
	return src.URL
}
