package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixdeck/internal/catalog"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/shared"
	th "github.com/desertthunder/mixdeck/internal/testing"
)

func setupCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New(catalog.DefaultConfig(), nil)
	th.SeedCatalog(t, c)
	return c
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: "MD", want: FormatMarkdown},
		{in: "markdown", want: FormatMarkdown},
		{in: "json", want: FormatJSON},
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Fatalf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestFormatTempo(t *testing.T) {
	if got := FormatTempo(0); got != "free" {
		t.Errorf("expected free, got %q", got)
	}
	if got := FormatTempo(128.5); got != "128.5 BPM" {
		t.Errorf("expected 128.5 BPM, got %q", got)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ClipsCSV", func(t *testing.T) {
		c := setupCatalog(t)

		data, err := ClipsCSV(c.List())
		if err != nil {
			t.Fatalf("ClipsCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Name,Channel,Category,Tempo,Tags\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "bgm_main,Main Theme,bgm,BGM,120,loop;theme") {
			t.Errorf("CSV missing bgm_main row, got: %s", output)
		}
		if !strings.Contains(output, "bgm_battle,Battle,bgm,Combat,150,") {
			t.Errorf("CSV missing custom category, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != len(th.Fixtures)+1 {
			t.Errorf("expected %d lines, got %d", len(th.Fixtures)+1, lines)
		}
	})

	t.Run("StatisticsCSV", func(t *testing.T) {
		c := setupCatalog(t)

		data, err := StatisticsCSV(c.Statistics())
		if err != nil {
			t.Fatalf("StatisticsCSV failed: %v", err)
		}

		want := strings.Join([]string{
			"Dimension,Key,Count",
			"total,,6",
			"channel,bgm,2",
			"channel,sfx,1",
			"channel,stem,2",
			"channel,voice,1",
			"category,Stem,2",
			"category,BGM,1",
			"category,Combat,1",
			"category,SFX,1",
			"category,Voice,1",
			"tempo,120,3",
			"tempo,150,1",
		}, "\n") + "\n"

		if string(data) != want {
			t.Errorf("unexpected statistics CSV:\n%s\nwant:\n%s", data, want)
		}
	})

	t.Run("StatisticsCSV Empty", func(t *testing.T) {
		data, err := StatisticsCSV(catalog.New(catalog.DefaultConfig(), nil).Statistics())
		if err != nil {
			t.Fatalf("StatisticsCSV failed: %v", err)
		}
		if string(data) != "Dimension,Key,Count\ntotal,,0\n" {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("CatalogMarkdown", func(t *testing.T) {
		c := setupCatalog(t)

		data, err := CatalogMarkdown("Game Audio", c.List(), c.Statistics())
		if err != nil {
			t.Fatalf("CatalogMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Game Audio\n",
			"**Clips**: 6",
			"| bgm | 2 | 33.3% |",
			"1. **Main Theme** (bgm_main) bgm, BGM [120 BPM] `loop` `theme`",
			"3. **Click** (sfx_click) sfx, SFX [free]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("CatalogMarkdown Empty", func(t *testing.T) {
		data, err := CatalogMarkdown("Empty", nil, catalog.Statistics{})
		if err != nil {
			t.Fatalf("CatalogMarkdown failed: %v", err)
		}
		if strings.Contains(string(data), "## Channels") {
			t.Error("empty catalog should not render a channel table")
		}
	})

	t.Run("CatalogText", func(t *testing.T) {
		c := setupCatalog(t)
		output := string(CatalogText(c.ByChannel(models.ChannelStem)))

		if strings.Count(output, "\n") != 2 || !strings.Contains(output, "stem_drums") || !strings.Contains(output, "120 BPM") {
			t.Errorf("unexpected text output:\n%s", output)
		}
	})

	t.Run("ClipsJSON", func(t *testing.T) {
		c := setupCatalog(t)

		data, err := ClipsJSON(c.List())
		if err != nil {
			t.Fatalf("ClipsJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != len(th.Fixtures) || decoded[0]["id"] != "bgm_main" || decoded[0]["channel"] != "bgm" {
			t.Errorf("unexpected JSON %s", data)
		}
		if _, ok := decoded[2]["tags"]; ok {
			t.Error("expected tags omitted for untagged clip")
		}
	})
}

func TestStatusText(t *testing.T) {
	coord := mixer.New(mixer.DefaultOptions())
	th.SeedCatalog(t, coord.Catalog())
	if err := coord.PlayBackgroundMusic("bgm_main"); err != nil {
		t.Fatalf("PlayBackgroundMusic: %v", err)
	}
	if err := coord.PlaySoundEffect("sfx_click"); err != nil {
		t.Fatalf("PlaySoundEffect: %v", err)
	}

	output := string(StatusText(coord.Status()))
	for _, want := range []string{
		"Enabled:    true",
		"Master:     1.00",
		"bgm:      0.80",
		"Music:      bgm_main (bgm_main)",
		"Effects:    1",
		"Sessions:   2 (2 active)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("status missing %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "sfx:") {
		t.Error("unity channel volumes should be omitted")
	}

	t.Run("Idle", func(t *testing.T) {
		output := string(StatusText(mixer.New(mixer.DefaultOptions()).Status()))
		if !strings.Contains(output, "Music:      none") {
			t.Errorf("expected no music, got:\n%s", output)
		}
	})
}

func TestSessionsText(t *testing.T) {
	if got := string(SessionsText(nil)); got != "No sessions\n" {
		t.Errorf("unexpected empty output %q", got)
	}

	s := session.New("stem_drums", "stem_drums", models.ChannelStem, session.DefaultConfig(), nil)
	if err := s.Schedule(2); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	output := string(SessionsText([]session.Status{s.Status()}))
	if !strings.Contains(output, "stem_drums [stem] scheduled") || !strings.Contains(output, "at 2.000s") {
		t.Errorf("unexpected sessions output %q", output)
	}
}

func TestEventsText(t *testing.T) {
	r := models.RestoreEventRecord("id", 7, time.Time{}, time.Time{}, nil)
	r.Kind = "stem_scheduled"
	r.Subject = "stem_drums"
	r.EngineTime = 2
	r.Detail = "120.0 BPM"

	got := string(EventsText([]*models.EventRecord{r}))
	want := "    7    2.000s stem_scheduled     stem_drums | 120.0 BPM\n"
	if got != want {
		t.Errorf("EventsText() = %q, want %q", got, want)
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteCatalogExport CSV", func(t *testing.T) {
		c := setupCatalog(t)
		base := filepath.Join(t.TempDir(), "exports", "game")

		result, err := WriteCatalogExport(FormatCSV, base, c.List(), c.Statistics())
		if err != nil {
			t.Fatalf("WriteCatalogExport failed: %v", err)
		}

		th.AssertFileExists(t, result.ClipsFile)
		th.AssertFileExists(t, result.StatsFile)
		if !strings.HasSuffix(result.ClipsFile, "game.csv") || !strings.HasSuffix(result.StatsFile, "game_stats.csv") {
			t.Errorf("unexpected file names %+v", result)
		}
		if content := th.MustReadFile(t, result.StatsFile); !strings.Contains(content, "total,,6") {
			t.Errorf("stats file missing total, got: %s", content)
		}
	})

	t.Run("WriteCatalogExport Markdown Default Base", func(t *testing.T) {
		c := setupCatalog(t)
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		result, err := WriteCatalogExport(FormatMarkdown, "", c.List(), c.Statistics())
		if err != nil {
			t.Fatalf("WriteCatalogExport failed: %v", err)
		}

		if result.ClipsFile != "catalog.md" || result.StatsFile != "" {
			t.Errorf("unexpected result %+v", result)
		}
		if content := th.MustReadFile(t, result.ClipsFile); !strings.HasPrefix(content, "# catalog\n") {
			t.Errorf("unexpected markdown title, got: %s", content)
		}
	})

	t.Run("WriteCatalogExport Unknown Format", func(t *testing.T) {
		_, err := WriteCatalogExport("xml", filepath.Join(t.TempDir(), "x"), nil, catalog.Statistics{})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}
