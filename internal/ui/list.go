package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixdeck/internal/formatter"
	"github.com/desertthunder/mixdeck/internal/models"
)

var (
	_ list.Item = clipItem{}
)

// clipItem wraps [models.Clip] to implement [list.Item].
type clipItem struct {
	clip *models.Clip
}

func (i clipItem) FilterValue() string { return i.clip.ID() + " " + i.clip.DisplayName() }
func (i clipItem) Title() string       { return i.clip.DisplayName() }
func (i clipItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %s", i.clip.ID(), i.clip.Channel(), formatter.FormatTempo(i.clip.Tempo()))
	if tags := i.clip.Tags(); len(tags) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(tags, ", "))
	}
	return desc
}

func clipItems(clips []*models.Clip) []list.Item {
	items := make([]list.Item, len(clips))
	for i, c := range clips {
		items[i] = clipItem{clip: c}
	}
	return items
}
