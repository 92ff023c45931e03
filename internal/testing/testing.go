// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/mixdeck/internal/catalog"
	"github.com/desertthunder/mixdeck/internal/models"
)

// ClipFixture describes a clip registered by [SeedCatalog]
type ClipFixture struct {
	ID       string
	Name     string
	Channel  models.Channel
	Tempo    float64
	Category string
	Tags     []string
}

// Fixtures is a small catalog covering the three playable channels plus an unplayable one.
var Fixtures = []ClipFixture{
	{ID: "bgm_main", Name: "Main Theme", Channel: models.ChannelBGM, Tempo: 120, Tags: []string{"theme", "loop"}},
	{ID: "bgm_battle", Name: "Battle", Channel: models.ChannelBGM, Tempo: 150, Category: "Combat"},
	{ID: "sfx_click", Name: "Click", Channel: models.ChannelSFX},
	{ID: "stem_drums", Name: "Drums", Channel: models.ChannelStem, Tempo: 120},
	{ID: "stem_bass", Name: "Bass", Channel: models.ChannelStem, Tempo: 120},
	{ID: "voice_intro", Name: "Intro Line", Channel: models.ChannelVoice},
}

// SeedCatalog registers [Fixtures] into c
func SeedCatalog(t *testing.T, c *catalog.Catalog) {
	t.Helper()
	for _, f := range Fixtures {
		clip := models.NewClip(f.ID, f.Name, f.Channel, f.Tempo)
		if f.Category != "" {
			clip.SetCategory(f.Category)
		}
		for _, tag := range f.Tags {
			clip.AddTag(tag)
		}
		if _, err := c.RegisterClip(clip); err != nil {
			t.Fatalf("Failed to register fixture %s: %v", f.ID, err)
		}
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
