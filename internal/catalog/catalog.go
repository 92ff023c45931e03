package catalog

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Config bounds the catalog.
type Config struct {
	MaxClips          int
	PreventDuplicates bool    // When false, registering an existing id updates it
	TempoTolerance    float64 // Default BPM tolerance for ByTempo
	Actor             string  // Recorded as UpdatedBy on every mutation
}

func DefaultConfig() Config {
	return Config{MaxClips: 1000, PreventDuplicates: true, TempoTolerance: 5, Actor: "mixdeck"}
}

type entry struct {
	clip *models.Clip
	seq  uint64
}

// Catalog stores clip descriptors with channel, category and tempo indices.
//
// Every mutation validates first and then updates the store and all indices together,
// so a failed call leaves the catalog unchanged. Returned clips are copies.
type Catalog struct {
	cfg  Config
	sink events.Sink
	now  func() time.Time

	clips      map[string]*entry
	nextSeq    uint64
	byChannel  map[models.Channel]map[string]struct{}
	byCategory map[string]map[string]struct{}
	byTempo    map[float64]map[string]struct{}
}

// New creates an empty catalog. A nil sink discards events.
func New(cfg Config, sink events.Sink) *Catalog {
	if cfg.MaxClips <= 0 {
		cfg.MaxClips = DefaultConfig().MaxClips
	}
	if cfg.TempoTolerance <= 0 || math.IsNaN(cfg.TempoTolerance) {
		cfg.TempoTolerance = DefaultConfig().TempoTolerance
	}
	if cfg.Actor == "" {
		cfg.Actor = DefaultConfig().Actor
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Catalog{
		cfg:        cfg,
		sink:       sink,
		now:        time.Now,
		clips:      map[string]*entry{},
		byChannel:  map[models.Channel]map[string]struct{}{},
		byCategory: map[string]map[string]struct{}{},
		byTempo:    map[float64]map[string]struct{}{},
	}
}

func (c *Catalog) Config() Config { return c.cfg }

func (c *Catalog) Len() int { return len(c.clips) }

// Register adds a clip with the channel's default category.
func (c *Catalog) Register(id, displayName string, channel models.Channel, tempo float64) (*models.Clip, error) {
	return c.RegisterClip(models.NewClip(id, displayName, channel, tempo))
}

// RegisterClip adds a fully described clip, keeping its category and tags.
// An empty category is replaced by the channel default. With duplicate prevention off an
// existing id is updated in place instead.
func (c *Catalog) RegisterClip(clip *models.Clip) (*models.Clip, error) {
	if clip == nil {
		return nil, c.reject("", fmt.Errorf("%w: nil clip", shared.ErrInvalidInput))
	}
	candidate := clip.Clone()
	if candidate.Category() == "" {
		candidate.SetCategory(candidate.Channel().DefaultCategory())
	}
	if err := candidate.Validate(); err != nil {
		return nil, c.reject(candidate.ID(), err)
	}

	if _, exists := c.clips[candidate.ID()]; exists {
		if c.cfg.PreventDuplicates {
			return nil, c.reject(candidate.ID(), fmt.Errorf("%w: clip %s", shared.ErrDuplicate, candidate.ID()))
		}
		return c.Update(candidate.ID(), candidate.DisplayName(), candidate.Channel(), candidate.Tempo())
	}
	if len(c.clips) >= c.cfg.MaxClips {
		return nil, c.reject(candidate.ID(), fmt.Errorf("%w: catalog holds %d clips", shared.ErrCapacity, c.cfg.MaxClips))
	}

	now := c.now()
	candidate.SetUpdatedAt(now)
	candidate.SetUpdatedBy(c.cfg.Actor)
	c.nextSeq++
	c.clips[candidate.ID()] = &entry{clip: candidate, seq: c.nextSeq}
	c.index(candidate)

	c.sink.Emit(events.Event{Kind: events.ClipRegistered, Subject: candidate.ID(), ClipID: candidate.ID(), Channel: candidate.Channel(), Detail: candidate.DisplayName()})
	return candidate.Clone(), nil
}

// Update replaces the display name, channel and tempo of an existing clip.
//
// A category that still equals the old channel's default follows the channel change; a custom category is kept.
func (c *Catalog) Update(id, displayName string, channel models.Channel, tempo float64) (*models.Clip, error) {
	e, ok := c.clips[id]
	if !ok {
		return nil, c.reject(id, fmt.Errorf("%w: clip %s", shared.ErrNotFound, id))
	}

	candidate := e.clip.Clone()
	if candidate.Category() == candidate.Channel().DefaultCategory() {
		candidate.SetCategory(channel.DefaultCategory())
	}
	candidate.SetDisplayName(displayName)
	candidate.SetChannel(channel)
	candidate.SetTempo(tempo)
	if err := candidate.Validate(); err != nil {
		return nil, c.reject(id, err)
	}
	return c.replace(candidate)
}

// SetCategory moves a clip to a new category. An empty category restores the channel default.
func (c *Catalog) SetCategory(id, category string) (*models.Clip, error) {
	e, ok := c.clips[id]
	if !ok {
		return nil, c.reject(id, fmt.Errorf("%w: clip %s", shared.ErrNotFound, id))
	}
	candidate := e.clip.Clone()
	if category == "" {
		category = candidate.Channel().DefaultCategory()
	}
	candidate.SetCategory(category)
	if err := candidate.Validate(); err != nil {
		return nil, c.reject(id, err)
	}
	return c.replace(candidate)
}

func (c *Catalog) AddTag(id, tag string) error {
	return c.editTags(id, tag, true)
}

func (c *Catalog) RemoveTag(id, tag string) error {
	return c.editTags(id, tag, false)
}

func (c *Catalog) editTags(id, tag string, add bool) error {
	e, ok := c.clips[id]
	if !ok {
		return c.reject(id, fmt.Errorf("%w: clip %s", shared.ErrNotFound, id))
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return c.reject(id, fmt.Errorf("%w: empty tag", shared.ErrInvalidInput))
	}
	if e.clip.HasTag(tag) == add {
		return nil
	}
	candidate := e.clip.Clone()
	if add {
		candidate.AddTag(tag)
	} else {
		candidate.RemoveTag(tag)
	}
	_, err := c.replace(candidate)
	return err
}

// replace swaps in an already validated candidate for an existing id, re-indexing it.
func (c *Catalog) replace(candidate *models.Clip) (*models.Clip, error) {
	e := c.clips[candidate.ID()]
	c.unindex(e.clip)
	candidate.SetUpdatedAt(c.now())
	candidate.SetUpdatedBy(c.cfg.Actor)
	e.clip = candidate
	c.index(candidate)

	c.sink.Emit(events.Event{Kind: events.ClipUpdated, Subject: candidate.ID(), ClipID: candidate.ID(), Channel: candidate.Channel(), Detail: candidate.DisplayName()})
	return candidate.Clone(), nil
}

// Remove deletes a clip and its index entries.
func (c *Catalog) Remove(id string) error {
	e, ok := c.clips[id]
	if !ok {
		return c.reject(id, fmt.Errorf("%w: clip %s", shared.ErrNotFound, id))
	}
	c.unindex(e.clip)
	delete(c.clips, id)

	c.sink.Emit(events.Event{Kind: events.ClipRemoved, Subject: id, ClipID: id, Channel: e.clip.Channel()})
	return nil
}

func (c *Catalog) reject(id string, err error) error {
	c.sink.Emit(events.Event{Kind: events.ClipRejected, Subject: id, ClipID: id, Detail: err.Error()})
	return err
}

func (c *Catalog) index(clip *models.Clip) {
	addTo(c.byChannel, clip.Channel(), clip.ID())
	addTo(c.byCategory, clip.Category(), clip.ID())
	if clip.TempoBound() {
		addTo(c.byTempo, clip.Tempo(), clip.ID())
	}
}

func (c *Catalog) unindex(clip *models.Clip) {
	removeFrom(c.byChannel, clip.Channel(), clip.ID())
	removeFrom(c.byCategory, clip.Category(), clip.ID())
	if clip.TempoBound() {
		removeFrom(c.byTempo, clip.Tempo(), clip.ID())
	}
}

func addTo[K comparable](idx map[K]map[string]struct{}, key K, id string) {
	set, ok := idx[key]
	if !ok {
		set = map[string]struct{}{}
		idx[key] = set
	}
	set[id] = struct{}{}
}

func removeFrom[K comparable](idx map[K]map[string]struct{}, key K, id string) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(idx, key)
	}
}

// collect returns copies of the given ids in registration order.
func (c *Catalog) collect(ids map[string]struct{}) []*models.Clip {
	entries := make([]*entry, 0, len(ids))
	for id := range ids {
		if e, ok := c.clips[id]; ok {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b *entry) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]*models.Clip, len(entries))
	for i, e := range entries {
		out[i] = e.clip.Clone()
	}
	return out
}
