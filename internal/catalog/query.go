package catalog

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Get returns a copy of the clip registered under id.
func (c *Catalog) Get(id string) (*models.Clip, error) {
	e, ok := c.clips[id]
	if !ok {
		return nil, fmt.Errorf("%w: clip %s", shared.ErrNotFound, id)
	}
	return e.clip.Clone(), nil
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.clips[id]
	return ok
}

// List returns every clip in registration order.
func (c *Catalog) List() []*models.Clip {
	ids := make(map[string]struct{}, len(c.clips))
	for id := range c.clips {
		ids[id] = struct{}{}
	}
	return c.collect(ids)
}

func (c *Catalog) ByChannel(ch models.Channel) []*models.Clip {
	return c.collect(c.byChannel[ch])
}

func (c *Catalog) ByCategory(category string) []*models.Clip {
	return c.collect(c.byCategory[category])
}

// ByTempo returns tempo-bound clips within tolerance BPM of target.
// A non-positive tolerance uses the configured default.
func (c *Catalog) ByTempo(target, tolerance float64) []*models.Clip {
	if tolerance <= 0 || math.IsNaN(tolerance) {
		tolerance = c.cfg.TempoTolerance
	}
	ids := map[string]struct{}{}
	for bpm, set := range c.byTempo {
		if math.Abs(bpm-target) <= tolerance {
			for id := range set {
				ids[id] = struct{}{}
			}
		}
	}
	return c.collect(ids)
}

// Search matches text case-insensitively against id, display name, category and tags.
// Empty text matches nothing; limit <= 0 means unlimited.
func (c *Catalog) Search(text string, limit int) []*models.Clip {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}

	var out []*models.Clip
	for _, clip := range c.List() {
		if !clip.Matches(needle) {
			continue
		}
		out = append(out, clip)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Categories returns the indexed categories sorted.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.byCategory))
	for cat := range c.byCategory {
		out = append(out, cat)
	}
	slices.Sort(out)
	return out
}

// Statistics summarizes the catalog contents.
type Statistics struct {
	Total               int
	ByChannel           map[models.Channel]int
	ByCategory          map[string]int
	ByTempo             map[float64]int
	ChannelDistribution map[models.Channel]float64 // Percent of Total
}

// Tempos returns the tempo keys sorted ascending.
func (s Statistics) Tempos() []float64 {
	out := make([]float64, 0, len(s.ByTempo))
	for bpm := range s.ByTempo {
		out = append(out, bpm)
	}
	slices.Sort(out)
	return out
}

// Categories returns the category keys sorted by count, then name.
func (s Statistics) Categories() []string {
	out := make([]string, 0, len(s.ByCategory))
	for cat := range s.ByCategory {
		out = append(out, cat)
	}
	slices.SortFunc(out, func(a, b string) int {
		if n := cmp.Compare(s.ByCategory[b], s.ByCategory[a]); n != 0 {
			return n
		}
		return cmp.Compare(a, b)
	})
	return out
}

func (c *Catalog) Statistics() Statistics {
	st := Statistics{
		Total:               len(c.clips),
		ByChannel:           map[models.Channel]int{},
		ByCategory:          map[string]int{},
		ByTempo:             map[float64]int{},
		ChannelDistribution: map[models.Channel]float64{},
	}
	for ch, set := range c.byChannel {
		st.ByChannel[ch] = len(set)
	}
	for cat, set := range c.byCategory {
		st.ByCategory[cat] = len(set)
	}
	for bpm, set := range c.byTempo {
		st.ByTempo[bpm] = len(set)
	}
	if st.Total > 0 {
		for ch, n := range st.ByChannel {
			st.ChannelDistribution[ch] = float64(n) / float64(st.Total) * 100
		}
	}
	return st
}

func (c *Catalog) Summary() string {
	st := c.Statistics()
	return fmt.Sprintf("catalog: %d/%d clips, %d channels, %d categories, %d tempos",
		st.Total, c.cfg.MaxClips, len(st.ByChannel), len(st.ByCategory), len(st.ByTempo))
}

// CheckIndices verifies that every index holds exactly the ids whose descriptors match its key.
func (c *Catalog) CheckIndices() error {
	want := New(c.cfg, nil)
	for _, e := range c.clips {
		want.index(e.clip)
	}

	if err := compareIndex("channel", c.byChannel, want.byChannel); err != nil {
		return err
	}
	if err := compareIndex("category", c.byCategory, want.byCategory); err != nil {
		return err
	}
	return compareIndex("tempo", c.byTempo, want.byTempo)
}

func compareIndex[K comparable](name string, got, want map[K]map[string]struct{}) error {
	if len(got) != len(want) {
		return fmt.Errorf("%s index has %d keys, want %d", name, len(got), len(want))
	}
	for key, set := range want {
		have := got[key]
		if len(have) != len(set) {
			return fmt.Errorf("%s index key %v has %d ids, want %d", name, key, len(have), len(set))
		}
		for id := range set {
			if _, ok := have[id]; !ok {
				return fmt.Errorf("%s index key %v is missing %s", name, key, id)
			}
		}
	}
	return nil
}
