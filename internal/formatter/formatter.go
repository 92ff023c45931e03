// package formatter renders catalog, mix and journal data as CSV, Markdown, JSON and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/mixdeck/internal/catalog"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Supported export formats
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatText     = "txt"
)

// ParseFormat normalizes an export format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "", "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (csv, markdown, json, txt)", shared.ErrInvalidFlag, s)
}

// FormatTempo renders a tempo, or "free" for clips without one.
func FormatTempo(bpm float64) string {
	if bpm <= 0 {
		return "free"
	}
	return strconv.FormatFloat(bpm, 'f', -1, 64) + " BPM"
}

// ClipsCSV converts clips to CSV with columns: ID, Name, Channel, Category, Tempo, Tags
func ClipsCSV(clips []*models.Clip) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Channel", "Category", "Tempo", "Tags"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, clip := range clips {
		record := []string{
			clip.ID(),
			clip.DisplayName(),
			clip.Channel().String(),
			clip.Category(),
			strconv.FormatFloat(clip.Tempo(), 'f', -1, 64),
			strings.Join(clip.Tags(), ";"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// StatisticsCSV flattens catalog statistics into Dimension, Key, Count rows.
//
// Channels appear in declaration order, categories by count, tempos ascending.
func StatisticsCSV(stats catalog.Statistics) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	rows := [][]string{{"Dimension", "Key", "Count"}, {"total", "", strconv.Itoa(stats.Total)}}
	for _, ch := range models.Channels() {
		if n, ok := stats.ByChannel[ch]; ok {
			rows = append(rows, []string{"channel", ch.String(), strconv.Itoa(n)})
		}
	}
	for _, cat := range stats.Categories() {
		rows = append(rows, []string{"category", cat, strconv.Itoa(stats.ByCategory[cat])})
	}
	for _, bpm := range stats.Tempos() {
		rows = append(rows, []string{"tempo", strconv.FormatFloat(bpm, 'f', -1, 64), strconv.Itoa(stats.ByTempo[bpm])})
	}

	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// CatalogMarkdown renders a catalog listing with a channel breakdown
func CatalogMarkdown(title string, clips []*models.Clip, stats catalog.Statistics) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Clips**: %d\n", stats.Total))
	buf.WriteString(fmt.Sprintf("**Categories**: %d\n\n", len(stats.ByCategory)))

	if stats.Total > 0 {
		buf.WriteString("## Channels\n\n")
		buf.WriteString("| Channel | Clips | Share |\n|---|---|---|\n")
		for _, ch := range models.Channels() {
			if n, ok := stats.ByChannel[ch]; ok {
				buf.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n", ch, n, stats.ChannelDistribution[ch]))
			}
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Clips\n\n")
	for i, clip := range clips {
		tags := ""
		if t := clip.Tags(); len(t) > 0 {
			tags = " `" + strings.Join(t, "` `") + "`"
		}
		buf.WriteString(fmt.Sprintf("%d. **%s** (%s) %s, %s [%s]%s\n",
			i+1, clip.DisplayName(), clip.ID(), clip.Channel(), clip.Category(), FormatTempo(clip.Tempo()), tags))
	}

	return buf.Bytes(), nil
}

// CatalogText renders one clip per line
func CatalogText(clips []*models.Clip) []byte {
	var buf bytes.Buffer
	for _, clip := range clips {
		buf.WriteString(fmt.Sprintf("%-20s %-8s %-10s %-10s %s\n",
			clip.ID(), clip.Channel(), clip.Category(), FormatTempo(clip.Tempo()), clip.DisplayName()))
	}
	return buf.Bytes()
}

// StatusText renders the coordinator status as aligned key/value lines
func StatusText(st mixer.Status) []byte {
	var buf bytes.Buffer

	bgm := "none"
	if st.CurrentBackgroundMusic != "" {
		bgm = fmt.Sprintf("%s (%s)", st.CurrentBackgroundMusic, st.CurrentBackgroundClip)
	}

	buf.WriteString(fmt.Sprintf("Enabled:    %t\n", st.Enabled))
	buf.WriteString(fmt.Sprintf("Stem sync:  %t\n", st.StemSync))
	buf.WriteString(fmt.Sprintf("Master:     %.2f\n", st.MasterVolume))
	for _, ch := range models.Channels() {
		if v, ok := st.ChannelVolumes[ch.String()]; ok && v != 1 {
			buf.WriteString(fmt.Sprintf("  %-9s %.2f\n", ch.String()+":", v))
		}
	}
	buf.WriteString(fmt.Sprintf("Music:      %s\n", bgm))
	buf.WriteString(fmt.Sprintf("Effects:    %d\n", st.ActiveSoundEffects))
	buf.WriteString(fmt.Sprintf("Stems:      %d\n", st.ActiveStems))
	buf.WriteString(fmt.Sprintf("Sessions:   %d (%d active)\n", st.TotalSessions, st.TotalActive))
	buf.WriteString(fmt.Sprintf("Pending:    %d\n", st.PendingRequests))
	buf.WriteString(fmt.Sprintf("Updated at: %.3fs\n", st.LastUpdate))

	return buf.Bytes()
}

// SessionsText renders one summary line per session
func SessionsText(sessions []session.Status) []byte {
	if len(sessions) == 0 {
		return []byte("No sessions\n")
	}

	var buf bytes.Buffer
	for _, st := range sessions {
		buf.WriteString(st.Summary())
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// EventsText renders journal records in sequence order
func EventsText(records []*models.EventRecord) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		line := fmt.Sprintf("%5d %8.3fs %-18s %s", r.Sequence(), r.EngineTime, r.Kind, r.Subject)
		if r.Detail != "" {
			line += " | " + r.Detail
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes()
}

// ToJSON encodes v, indented when pretty is set
func ToJSON(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

type clipJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Channel  string   `json:"channel"`
	Category string   `json:"category"`
	Tempo    float64  `json:"tempo"`
	Tags     []string `json:"tags,omitempty"`
}

// ClipsJSON encodes clips as an indented JSON array
func ClipsJSON(clips []*models.Clip) ([]byte, error) {
	out := make([]clipJSON, len(clips))
	for i, c := range clips {
		out[i] = clipJSON{ID: c.ID(), Name: c.DisplayName(), Channel: c.Channel().String(), Category: c.Category(), Tempo: c.Tempo(), Tags: c.Tags()}
	}
	return ToJSON(out, true)
}

// Render encodes clips in the given format
func Render(format string, title string, clips []*models.Clip, stats catalog.Statistics) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ClipsCSV(clips)
	case FormatMarkdown:
		return CatalogMarkdown(title, clips, stats)
	case FormatJSON:
		return ClipsJSON(clips)
	case FormatText:
		return CatalogText(clips), nil
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// ExportResult contains the paths of files created by WriteCatalogExport
type ExportResult struct {
	ClipsFile string
	StatsFile string
}

// WriteCatalogExport writes the clips to {base}.{ext} and, for CSV, statistics to {base}_stats.csv.
//
// The base path defaults to "catalog" and parent directories are created as needed.
func WriteCatalogExport(format, base string, clips []*models.Clip, stats catalog.Statistics) (*ExportResult, error) {
	if base == "" {
		base = "catalog"
	}
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := Render(format, filepath.Base(base), clips, stats)
	if err != nil {
		return nil, err
	}

	ext := map[string]string{FormatCSV: ".csv", FormatMarkdown: ".md", FormatJSON: ".json", FormatText: ".txt"}[format]
	result := &ExportResult{ClipsFile: base + ext}
	if err := os.WriteFile(result.ClipsFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	if format == FormatCSV {
		statsData, err := StatisticsCSV(stats)
		if err != nil {
			return nil, fmt.Errorf("failed to generate statistics: %w", err)
		}
		result.StatsFile = base + "_stats.csv"
		if err := os.WriteFile(result.StatsFile, statsData, 0644); err != nil {
			return nil, fmt.Errorf("failed to write statistics file: %w", err)
		}
	}

	return result, nil
}
