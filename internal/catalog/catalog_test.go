package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

func newTestCatalog(t *testing.T) (*Catalog, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	return New(DefaultConfig(), rec), rec
}

func mustRegister(t *testing.T, c *Catalog, id string, ch models.Channel, tempo float64) {
	t.Helper()
	if _, err := c.Register(id, strings.ToUpper(id), ch, tempo); err != nil {
		t.Fatalf("failed to register %s: %v", id, err)
	}
}

func ids(clips []*models.Clip) string {
	out := make([]string, len(clips))
	for i, c := range clips {
		out[i] = c.ID()
	}
	return strings.Join(out, ",")
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c, rec := newTestCatalog(t)
		clip, err := c.Register("bgm_main", "Main Theme", models.ChannelBGM, 120)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if clip.Category() != "BGM" || clip.UpdatedBy() != "mixdeck" {
			t.Errorf("unexpected defaults: category=%s updatedBy=%s", clip.Category(), clip.UpdatedBy())
		}
		if !rec.Has(events.ClipRegistered, "bgm_main") {
			t.Error("expected registered event")
		}
		if err := c.CheckIndices(); err != nil {
			t.Error(err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		tc := []struct {
			name  string
			id    string
			label string
			ch    models.Channel
			tempo float64
		}{
			{name: "empty id", id: "", label: "X", ch: models.ChannelSFX},
			{name: "empty name", id: "x", label: "", ch: models.ChannelSFX},
			{name: "negative tempo", id: "x", label: "X", ch: models.ChannelStem, tempo: -1},
			{name: "tempo over 300", id: "x", label: "X", ch: models.ChannelStem, tempo: 301},
			{name: "unknown channel", id: "x", label: "X", ch: models.Channel(77)},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				c, rec := newTestCatalog(t)
				_, err := c.Register(tt.id, tt.label, tt.ch, tt.tempo)
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				if c.Len() != 0 {
					t.Error("failed register must not store anything")
				}
				if len(rec.Filter(events.ClipRejected)) != 1 {
					t.Error("expected a rejected event")
				}
			})
		}
	})

	t.Run("Duplicate Prevented", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		mustRegister(t, c, "a", models.ChannelSFX, 0)
		before := c.Statistics()

		_, err := c.Register("a", "Other", models.ChannelStem, 90)
		if !errors.Is(err, shared.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		after := c.Statistics()
		if after.Total != before.Total || len(c.ByChannel(models.ChannelStem)) != 0 || len(after.ByTempo) != 0 {
			t.Error("duplicate register changed catalog contents")
		}
		if err := c.CheckIndices(); err != nil {
			t.Error(err)
		}
	})

	t.Run("Duplicate Updates When Allowed", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PreventDuplicates = false
		c := New(cfg, nil)
		mustRegister(t, c, "a", models.ChannelSFX, 0)

		clip, err := c.Register("a", "Other", models.ChannelStem, 90)
		if err != nil {
			t.Fatalf("expected update, got %v", err)
		}
		if clip.Channel() != models.ChannelStem || c.Len() != 1 {
			t.Errorf("expected in-place update, got %v with %d clips", clip, c.Len())
		}
		if ids(c.ByTempo(90, 0)) != "a" {
			t.Error("tempo index not updated")
		}
	})

	t.Run("Capacity", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxClips = 2
		c := New(cfg, nil)
		mustRegister(t, c, "a", models.ChannelSFX, 0)
		mustRegister(t, c, "b", models.ChannelSFX, 0)

		if _, err := c.Register("c", "C", models.ChannelSFX, 0); !errors.Is(err, shared.ErrCapacity) {
			t.Fatalf("expected ErrCapacity, got %v", err)
		}
		if c.Len() != 2 {
			t.Errorf("expected 2 clips, got %d", c.Len())
		}
	})

	t.Run("RegisterClip Keeps Metadata", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		clip := models.NewClip("stem_drums", "Drums", models.ChannelStem, 128)
		clip.SetCategory("Percussion")
		clip.AddTag("loop")

		if _, err := c.RegisterClip(clip); err != nil {
			t.Fatalf("RegisterClip: %v", err)
		}
		if ids(c.ByCategory("Percussion")) != "stem_drums" {
			t.Error("custom category not indexed")
		}
		if ids(c.Search("loop", 0)) != "stem_drums" {
			t.Error("tag not searchable")
		}

		clip.AddTag("mutated")
		got, _ := c.Get("stem_drums")
		if got.HasTag("mutated") {
			t.Error("catalog must not alias caller's clip")
		}
	})
}

func TestUpdate(t *testing.T) {
	t.Run("Reindexes", func(t *testing.T) {
		c, rec := newTestCatalog(t)
		mustRegister(t, c, "a", models.ChannelSFX, 0)

		clip, err := c.Update("a", "A2", models.ChannelStem, 100)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if clip.Category() != "Stem" {
			t.Errorf("default category should follow channel, got %s", clip.Category())
		}
		if len(c.ByChannel(models.ChannelSFX)) != 0 || ids(c.ByChannel(models.ChannelStem)) != "a" {
			t.Error("channel index stale after update")
		}
		if len(c.ByCategory("SFX")) != 0 {
			t.Error("category index stale after update")
		}
		if !rec.Has(events.ClipUpdated, "a") {
			t.Error("expected updated event")
		}
		if err := c.CheckIndices(); err != nil {
			t.Error(err)
		}
	})

	t.Run("Keeps Custom Category", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		mustRegister(t, c, "a", models.ChannelSFX, 0)
		c.SetCategory("a", "Footsteps")

		clip, err := c.Update("a", "A", models.ChannelAmbient, 0)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if clip.Category() != "Footsteps" {
			t.Errorf("expected custom category kept, got %s", clip.Category())
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		if _, err := c.Update("nope", "N", models.ChannelSFX, 0); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Invalid Leaves Clip Unchanged", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		mustRegister(t, c, "a", models.ChannelStem, 120)

		if _, err := c.Update("a", "A", models.ChannelStem, 500); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		got, _ := c.Get("a")
		if got.Tempo() != 120 || ids(c.ByTempo(120, 0)) != "a" {
			t.Error("failed update mutated the clip")
		}
	})
}

func TestRemove(t *testing.T) {
	c, rec := newTestCatalog(t)
	mustRegister(t, c, "a", models.ChannelStem, 120)
	mustRegister(t, c, "b", models.ChannelStem, 120)

	if err := c.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Has("a") || ids(c.ByTempo(120, 0)) != "b" || ids(c.ByChannel(models.ChannelStem)) != "b" {
		t.Error("removed clip still indexed")
	}
	if !rec.Has(events.ClipRemoved, "a") {
		t.Error("expected removed event")
	}
	if err := c.Remove("a"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueries(t *testing.T) {
	c, _ := newTestCatalog(t)
	mustRegister(t, c, "bgm_main", models.ChannelBGM, 120)
	mustRegister(t, c, "stem_drums", models.ChannelStem, 124)
	mustRegister(t, c, "stem_bass", models.ChannelStem, 118)
	mustRegister(t, c, "stem_fast", models.ChannelStem, 174)
	mustRegister(t, c, "sfx_click", models.ChannelSFX, 0)
	c.AddTag("sfx_click", "Menu")

	t.Run("List Order", func(t *testing.T) {
		if got := ids(c.List()); got != "bgm_main,stem_drums,stem_bass,stem_fast,sfx_click" {
			t.Errorf("unexpected order %s", got)
		}
	})

	t.Run("ByTempo", func(t *testing.T) {
		tc := []struct {
			target, tol float64
			want        string
		}{
			{target: 120, tol: 0, want: "bgm_main,stem_drums,stem_bass"},
			{target: 120, tol: 1, want: "bgm_main"},
			{target: 170, tol: 0, want: "stem_fast"},
			{target: 0, tol: 0, want: ""},
		}
		for _, tt := range tc {
			t.Run(fmt.Sprintf("%v±%v", tt.target, tt.tol), func(t *testing.T) {
				if got := ids(c.ByTempo(tt.target, tt.tol)); got != tt.want {
					t.Errorf("got %s, want %s", got, tt.want)
				}
			})
		}
	})

	t.Run("Search", func(t *testing.T) {
		tc := []struct {
			text  string
			limit int
			want  string
		}{
			{text: "STEM", want: "stem_drums,stem_bass,stem_fast"},
			{text: "stem", limit: 2, want: "stem_drums,stem_bass"},
			{text: "menu", want: "sfx_click"},
			{text: "bgm", want: "bgm_main"},
			{text: "", want: ""},
			{text: "zzz", want: ""},
		}
		for _, tt := range tc {
			t.Run(tt.text, func(t *testing.T) {
				if got := ids(c.Search(tt.text, tt.limit)); got != tt.want {
					t.Errorf("got %s, want %s", got, tt.want)
				}
			})
		}
	})

	t.Run("Statistics", func(t *testing.T) {
		st := c.Statistics()
		if st.Total != 5 || st.ByChannel[models.ChannelStem] != 3 || st.ByCategory["Stem"] != 3 {
			t.Errorf("unexpected statistics %+v", st)
		}
		if st.ChannelDistribution[models.ChannelStem] != 60 {
			t.Errorf("expected stem share 60%%, got %v", st.ChannelDistribution[models.ChannelStem])
		}
		if len(st.ByTempo) != 4 {
			t.Errorf("sfx without tempo must not be counted, got %v", st.ByTempo)
		}
		if got := st.Categories()[0]; got != "Stem" {
			t.Errorf("expected largest category first, got %s", got)
		}
		if tempos := st.Tempos(); tempos[0] != 118 {
			t.Errorf("expected sorted tempos, got %v", tempos)
		}
		if !strings.Contains(c.Summary(), "5/1000") {
			t.Errorf("unexpected summary %s", c.Summary())
		}
	})

	t.Run("Tags", func(t *testing.T) {
		if err := c.AddTag("sfx_click", " "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty tag, got %v", err)
		}
		if err := c.RemoveTag("sfx_click", "Menu"); err != nil {
			t.Fatalf("RemoveTag: %v", err)
		}
		if len(c.Search("menu", 0)) != 0 {
			t.Error("removed tag still searchable")
		}
		if err := c.AddTag("nope", "x"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestIndexConsistencyUnderRandomOperations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxClips = 40
	c := New(cfg, nil)
	rng := rand.New(rand.NewPCG(7, 11))
	channels := models.Channels()
	tempos := []float64{0, 0, 90, 120, 120, 140, 400}

	for i := range 2000 {
		id := fmt.Sprintf("clip_%02d", rng.IntN(60))
		ch := channels[rng.IntN(len(channels))]
		tempo := tempos[rng.IntN(len(tempos))]

		switch rng.IntN(5) {
		case 0, 1:
			c.Register(id, "Clip "+id, ch, tempo)
		case 2:
			c.Update(id, "Clip "+id, ch, tempo)
		case 3:
			c.Remove(id)
		case 4:
			c.SetCategory(id, fmt.Sprintf("cat_%d", rng.IntN(4)))
		}

		if err := c.CheckIndices(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if c.Len() > cfg.MaxClips {
			t.Fatalf("step %d: %d clips exceeds capacity", i, c.Len())
		}
	}

	for _, clip := range c.List() {
		found := false
		for _, other := range c.ByChannel(clip.Channel()) {
			if other.ID() == clip.ID() {
				found = true
			}
		}
		if !found {
			t.Errorf("%s missing from its channel index", clip.ID())
		}
	}
}
