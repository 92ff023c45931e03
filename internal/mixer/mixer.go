package mixer

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/catalog"
	"github.com/desertthunder/mixdeck/internal/clock"
	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// MixState is everything the coordinator tracks between calls.
type MixState struct {
	MasterVolume           float64
	ChannelVolume          map[models.Channel]float64
	CurrentBackgroundMusic string   // Session id in the background-music slot
	ActiveSoundEffects     []string // Oldest first
	ActiveStems            []string // Oldest first
	Sessions               map[string]*session.Session
	PendingRequests        []Request
}

// Coordinator owns the catalog and every playback session, mixing volumes per channel.
//
// It is driven from a single control thread: direct calls plus a periodic [Coordinator.Update].
type Coordinator struct {
	opts    Options
	enabled bool
	bus     *events.Bus
	logger  *log.Logger
	catalog *catalog.Catalog
	clock   *clock.Clock

	state      MixState
	gains      map[string]float64 // Per-session request gain, absent means 1
	now        float64
	lastUpdate float64
}

// New builds a coordinator from opts.
func New(opts Options) *Coordinator {
	opts.setDefaults()

	c := &Coordinator{
		opts:    opts,
		enabled: opts.Enabled,
		bus:     events.NewBus(opts.Sinks...),
		logger:  opts.Logger,
		clock:   opts.Clock,
		gains:   map[string]float64{},
		state: MixState{
			MasterVolume:  clamp01(opts.MasterVolume),
			ChannelVolume: make(map[models.Channel]float64, len(models.Channels())),
			Sessions:      map[string]*session.Session{},
		},
	}
	for _, ch := range models.Channels() {
		v, ok := opts.ChannelVolumes[ch]
		if !ok {
			v = 1
		}
		c.state.ChannelVolume[ch] = clamp01(v)
	}

	c.catalog = opts.Catalog
	if c.catalog == nil {
		c.catalog = catalog.New(opts.CatalogConfig, c.bus)
	}
	return c
}

func (c *Coordinator) Catalog() *catalog.Catalog { return c.catalog }
func (c *Coordinator) Clock() *clock.Clock       { return c.clock }
func (c *Coordinator) Enabled() bool             { return c.enabled }

// Now is the engine time of the most recent Update.
func (c *Coordinator) Now() float64 { return c.now }

// Subscribe registers an additional event sink.
func (c *Coordinator) Subscribe(s events.Sink) { c.bus.Subscribe(s) }

// SetEnabled toggles the global switch. Disabling does not stop running sessions.
func (c *Coordinator) SetEnabled(on bool) { c.enabled = on }

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func (c *Coordinator) fail(subject string, err error) error {
	c.bus.Emit(events.Event{Kind: events.AudioError, Subject: subject, Time: c.now, Detail: err.Error()})
	return err
}

// lookup runs the checks shared by every play operation.
func (c *Coordinator) lookup(clipID string) (*models.Clip, error) {
	if !c.enabled {
		return nil, c.fail(clipID, fmt.Errorf("%w: cannot play %q", shared.ErrDisabled, clipID))
	}
	if clipID == "" {
		return nil, c.fail(clipID, fmt.Errorf("%w: clip id is required", shared.ErrInvalidInput))
	}
	clip, err := c.catalog.Get(clipID)
	if err != nil {
		return nil, c.fail(clipID, err)
	}
	return clip, nil
}

type playOptions struct {
	gain float64
	loop bool
}

var defaultPlay = playOptions{gain: 1}

func (c *Coordinator) sessionID(clipID string) string {
	if c.opts.Keying == KeyByInstance {
		return shared.InstanceID(clipID)
	}
	return clipID
}

// newSession registers a fresh Idle session, first retiring any session still holding the id.
func (c *Coordinator) newSession(clip *models.Clip, slot models.Channel, po playOptions) *session.Session {
	id := c.sessionID(clip.ID())
	if old, ok := c.state.Sessions[id]; ok {
		c.logger.Debug("replacing session", "id", id, "state", old.State())
		old.StopNow(c.now)
		if c.state.CurrentBackgroundMusic == id {
			c.bus.Emit(events.Event{Kind: events.BackgroundMusicStopped, Subject: id, ClipID: old.ClipID(), Channel: models.ChannelBGM, Time: c.now, Detail: "replaced"})
		}
		c.forget(id)
	}

	s := session.New(id, clip.ID(), slot, c.opts.Session, c.bus)
	s.SetLoop(po.loop)
	c.state.Sessions[id] = s
	if po.gain > 0 && po.gain != 1 {
		c.gains[id] = po.gain
	}
	return s
}

// forget drops id from the session map and every tracking collection.
func (c *Coordinator) forget(id string) {
	delete(c.state.Sessions, id)
	delete(c.gains, id)
	c.unlink(id)
}

func (c *Coordinator) unlink(id string) {
	if c.state.CurrentBackgroundMusic == id {
		c.state.CurrentBackgroundMusic = ""
	}
	c.state.ActiveSoundEffects = slices.DeleteFunc(c.state.ActiveSoundEffects, func(s string) bool { return s == id })
	c.state.ActiveStems = slices.DeleteFunc(c.state.ActiveStems, func(s string) bool { return s == id })
}

// retire stops a session with its normal fade. It stays in the session map until Update reaps it.
func (c *Coordinator) retire(id string) {
	c.unlink(id)
	s, ok := c.state.Sessions[id]
	if !ok {
		return
	}
	if err := s.Stop(c.now); err != nil {
		c.logger.Debug("stop skipped", "id", id, "err", err)
	}
	if !s.State().Live() {
		c.forget(id)
	}
}

// evictOldest makes room in list by retiring its oldest entries.
func (c *Coordinator) evictOldest(list *[]string, capacity int) {
	for len(*list) >= capacity {
		victim := (*list)[0]
		*list = (*list)[1:]
		c.bus.Emit(events.Event{Kind: events.SessionEvicted, Subject: victim, Time: c.now, Detail: fmt.Sprintf("capacity %d", capacity)})
		c.retire(victim)
	}
}

func (c *Coordinator) mixed(id string, ch models.Channel) float64 {
	v := c.state.MasterVolume * c.state.ChannelVolume[ch]
	if g, ok := c.gains[id]; ok {
		v *= g
	}
	return v
}

func (c *Coordinator) applyVolume(s *session.Session) {
	if _, err := s.SetVolume(c.mixed(s.ID(), s.Channel())); err != nil {
		c.logger.Debug("volume not applied", "id", s.ID(), "err", err)
	}
}

// PlayBackgroundMusic starts clipID in the single background-music slot, stopping the previous occupant first.
func (c *Coordinator) PlayBackgroundMusic(clipID string) error {
	return c.playBackgroundMusic(clipID, defaultPlay)
}

func (c *Coordinator) playBackgroundMusic(clipID string, po playOptions) error {
	clip, err := c.lookup(clipID)
	if err != nil {
		return err
	}

	if prev := c.state.CurrentBackgroundMusic; prev != "" {
		c.retire(prev)
		c.bus.Emit(events.Event{Kind: events.BackgroundMusicStopped, Subject: prev, Channel: models.ChannelBGM, Time: c.now, Detail: "replaced"})
	}

	s := c.newSession(clip, models.ChannelBGM, po)
	c.applyVolume(s)
	if err := s.Start(c.now); err != nil {
		c.forget(s.ID())
		return c.fail(clipID, err)
	}
	c.state.CurrentBackgroundMusic = s.ID()

	c.bus.Emit(events.Event{Kind: events.BackgroundMusicStarted, Subject: s.ID(), ClipID: clip.ID(), Channel: models.ChannelBGM, Time: c.now, Volume: s.TargetVolume(), Detail: clip.DisplayName()})
	return nil
}

// StopBackgroundMusic stops the background-music session, fading out when configured.
func (c *Coordinator) StopBackgroundMusic() error {
	id := c.state.CurrentBackgroundMusic
	if id == "" {
		return c.fail("", fmt.Errorf("%w: no background music", shared.ErrNothingPlaying))
	}
	c.retire(id)
	c.bus.Emit(events.Event{Kind: events.BackgroundMusicStopped, Subject: id, Channel: models.ChannelBGM, Time: c.now})
	return nil
}

// PlaySoundEffect starts clipID on the sound-effect channel. When the channel is full the oldest effect is evicted.
func (c *Coordinator) PlaySoundEffect(clipID string) error {
	return c.playSoundEffect(clipID, defaultPlay)
}

func (c *Coordinator) playSoundEffect(clipID string, po playOptions) error {
	clip, err := c.lookup(clipID)
	if err != nil {
		return err
	}

	s := c.newSession(clip, models.ChannelSFX, po)
	c.evictOldest(&c.state.ActiveSoundEffects, c.opts.MaxConcurrentSFX)
	c.applyVolume(s)
	if err := s.Start(c.now); err != nil {
		c.forget(s.ID())
		return c.fail(clipID, err)
	}
	c.state.ActiveSoundEffects = append(c.state.ActiveSoundEffects, s.ID())

	c.bus.Emit(events.Event{Kind: events.SoundEffectPlayed, Subject: s.ID(), ClipID: clip.ID(), Channel: models.ChannelSFX, Time: c.now, Volume: s.TargetVolume(), Detail: clip.DisplayName()})
	return nil
}

// PlayStemSynchronized schedules clipID to start on the first bar boundary at or after currentTime.
//
// The bar length comes from the clip's tempo when StemTempoFromClip is set and the clip is
// tempo-bound, otherwise from the clock's default tempo.
func (c *Coordinator) PlayStemSynchronized(clipID string, currentTime float64) error {
	return c.playStemSynchronized(clipID, currentTime, defaultPlay)
}

func (c *Coordinator) playStemSynchronized(clipID string, currentTime float64, po playOptions) error {
	if !c.opts.StemSync {
		return c.fail(clipID, fmt.Errorf("%w: stem sync is off", shared.ErrDisabled))
	}
	clip, err := c.lookup(clipID)
	if err != nil {
		return err
	}

	tempo := c.clock.Config().DefaultTempo
	if c.opts.StemTempoFromClip && clip.TempoBound() {
		tempo = clip.Tempo()
	}
	at := c.clock.NextBarTime(currentTime, tempo)
	if math.IsNaN(at) || math.IsInf(at, 0) || at < 0 {
		return c.fail(clipID, fmt.Errorf("%w: bar time %v from current time %v", shared.ErrInvalidInput, at, currentTime))
	}

	s := c.newSession(clip, models.ChannelStem, po)
	c.evictOldest(&c.state.ActiveStems, c.opts.MaxConcurrentStems)
	if err := s.Schedule(at); err != nil {
		c.forget(s.ID())
		return c.fail(clipID, err)
	}
	c.applyVolume(s)
	c.state.ActiveStems = append(c.state.ActiveStems, s.ID())

	c.bus.Emit(events.Event{Kind: events.StemScheduled, Subject: s.ID(), ClipID: clip.ID(), Channel: models.ChannelStem, Time: at, Volume: s.TargetVolume(),
		Detail: fmt.Sprintf("%.1f BPM, bar at %.3fs", tempo, at)})
	return nil
}

// SetVolume sets a channel volume, clamped to [0,1], and re-mixes the channel's active sessions.
func (c *Coordinator) SetVolume(ch models.Channel, v float64) error {
	if !ch.Valid() {
		return c.fail(ch.String(), fmt.Errorf("%w: unknown channel %d", shared.ErrInvalidInput, int(ch)))
	}
	if math.IsNaN(v) {
		return c.fail(ch.String(), fmt.Errorf("%w: volume is NaN", shared.ErrInvalidInput))
	}

	c.state.ChannelVolume[ch] = clamp01(v)
	for _, s := range c.activeSessions() {
		if s.Channel() == ch {
			c.applyVolume(s)
		}
	}
	c.bus.Emit(events.Event{Kind: events.ChannelVolumeChanged, Subject: ch.String(), Channel: ch, Time: c.now, Volume: c.state.ChannelVolume[ch]})
	return nil
}

// SetMasterVolume sets the master volume, clamped to [0,1], and re-mixes every active session.
func (c *Coordinator) SetMasterVolume(v float64) error {
	if math.IsNaN(v) {
		return c.fail("master", fmt.Errorf("%w: volume is NaN", shared.ErrInvalidInput))
	}

	c.state.MasterVolume = clamp01(v)
	for _, s := range c.activeSessions() {
		c.applyVolume(s)
	}
	c.bus.Emit(events.Event{Kind: events.MasterVolumeChanged, Subject: "master", Time: c.now, Volume: c.state.MasterVolume})
	return nil
}

// StopAllAudio stops every session without fading and clears all tracking. Pending requests are kept.
func (c *Coordinator) StopAllAudio() {
	for _, id := range slices.Sorted(maps.Keys(c.state.Sessions)) {
		c.state.Sessions[id].StopNow(c.now)
	}
	clear(c.state.Sessions)
	clear(c.gains)
	c.state.CurrentBackgroundMusic = ""
	c.state.ActiveSoundEffects = nil
	c.state.ActiveStems = nil
	c.bus.Emit(events.Event{Kind: events.AllAudioStopped, Time: c.now})
}

// Update advances every session to engine time now and discards the ones that reached Stopped.
func (c *Coordinator) Update(now, dt float64) {
	c.now = now
	ids := slices.Sorted(maps.Keys(c.state.Sessions))
	for _, id := range ids {
		c.state.Sessions[id].Update(now, dt)
	}
	for _, id := range ids {
		if s, ok := c.state.Sessions[id]; ok && !s.State().Live() {
			c.forget(id)
		}
	}
	c.lastUpdate = now
}

// activeIDs lists the tracked ids: background music, then effects, then stems.
func (c *Coordinator) activeIDs() []string {
	var ids []string
	if c.state.CurrentBackgroundMusic != "" {
		ids = append(ids, c.state.CurrentBackgroundMusic)
	}
	ids = append(ids, c.state.ActiveSoundEffects...)
	return append(ids, c.state.ActiveStems...)
}

func (c *Coordinator) activeSessions() []*session.Session {
	ids := c.activeIDs()
	out := make([]*session.Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := c.state.Sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// CheckInvariants reports the first violated mix-state invariant, or nil.
func (c *Coordinator) CheckInvariants() error {
	if n := len(c.state.ActiveSoundEffects); n > c.opts.MaxConcurrentSFX {
		return fmt.Errorf("%d sound effects exceed capacity %d", n, c.opts.MaxConcurrentSFX)
	}
	if n := len(c.state.ActiveStems); n > c.opts.MaxConcurrentStems {
		return fmt.Errorf("%d stems exceed capacity %d", n, c.opts.MaxConcurrentStems)
	}
	seen := map[string]bool{}
	for _, id := range c.activeIDs() {
		if seen[id] {
			return fmt.Errorf("session %s tracked twice", id)
		}
		seen[id] = true
		s, ok := c.state.Sessions[id]
		if !ok {
			return fmt.Errorf("tracked session %s has no session", id)
		}
		if !s.State().Live() {
			return fmt.Errorf("tracked session %s is stopped", id)
		}
	}
	return nil
}
