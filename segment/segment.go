// Package segment resolves the timeline segments of an item and the action configured for each type.
package segment

import (
	"context"
	"sort"
	"strconv"

	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/media"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// MyAnimeList is the provider id key aniskip lookups are made with.
const MyAnimeList = "MyAnimeList"

// Source lists the segments a media server detected for an item.
type Source interface {
	MediaSegments(ctx context.Context, itemID string) ([]media.Segment, error)
}

var actionKeys = map[media.SegmentType]string{
	media.SegmentIntro:      key.SegmentsIntro,
	media.SegmentOutro:      key.SegmentsOutro,
	media.SegmentRecap:      key.SegmentsRecap,
	media.SegmentPreview:    key.SegmentsPreview,
	media.SegmentCommercial: key.SegmentsCommercial,
}

// Resolver merges server segments with aniskip intervals.
// Both sources are optional.
type Resolver struct {
	server  Source
	aniskip *Aniskip
}

// NewResolver creates a resolver. aniskip may be nil.
func NewResolver(server Source, aniskip *Aniskip) *Resolver {
	return &Resolver{server: server, aniskip: aniskip}
}

// FromConfig creates a resolver for server honoring the segments.* switches.
func FromConfig(server Source) *Resolver {
	var aniskip *Aniskip
	if viper.GetBool(key.SegmentsAniskip) {
		aniskip = NewAniskip()
	}
	return NewResolver(server, aniskip)
}

// SegmentsFor returns the segments of item ordered by start.
// Server segments win over aniskip ones of the same type. Failures yield fewer segments, never an error.
func (r *Resolver) SegmentsFor(ctx context.Context, item media.Item) []media.Segment {
	if !viper.GetBool(key.SegmentsEnable) {
		return nil
	}

	var segments []media.Segment

	if r.server != nil && item.ID != "" {
		found, err := r.server.MediaSegments(ctx, item.ID)
		if err != nil {
			log.Warnf("media segments of %s: %v", item.ID, err)
		}
		segments = append(segments, found...)
	}

	if r.aniskip != nil && item.Index > 0 {
		if malID, ok := item.ProviderIDs[MyAnimeList]; ok && validID(malID) {
			found, err := r.aniskip.SkipTimes(ctx, malID, item.Index)
			if err != nil {
				log.Warnf("aniskip %s/%d: %v", malID, item.Index, err)
			}

			known := lo.SliceToMap(segments, func(s media.Segment) (media.SegmentType, struct{}) {
				return s.Type, struct{}{}
			})
			segments = append(segments, lo.Filter(found, func(s media.Segment, _ int) bool {
				_, dup := known[s.Type]
				return !dup
			})...)
		}
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	return segments
}

// ActionFor returns the configured action for the type of seg.
func (r *Resolver) ActionFor(seg media.Segment) media.SegmentAction {
	name, ok := actionKeys[seg.Type]
	if !ok {
		return media.SegmentIgnore
	}
	return media.ParseSegmentAction(viper.GetString(name))
}

func validID(id string) bool {
	n, err := strconv.Atoi(id)
	return err == nil && n > 0
}
