package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/formatter"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/tasks"
)

// ViewState represents the current view in the monitor.
type ViewState int

const (
	ClipListView ViewState = iota
	SessionView
	ResultView
)

const (
	volumeStep = 0.1
	meterWidth = 20
	eventLines = 8
)

// Model represents the monitor state.
//
// The model never touches the coordinator: it reads [tasks.Snapshot] values from the driver's
// progress channel and sends changes back through [tasks.TickDriver.Post].
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	driver       *tasks.TickDriver
	width        int
	height       int
	clipList     list.Model
	progressChan chan tasks.ProgressUpdate
	feed         <-chan events.Event
	eventLog     []string
	snapshot     tasks.Snapshot
	notice       string
	failures     int
	result       *tasks.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a monitor for driver. clips must be copies taken before the driver starts.
// feed, when non-nil, carries engine events for the event log, e.g. from an [events.ChannelSink].
func NewModel(ctx context.Context, driver *tasks.TickDriver, clips []*models.Clip, feed <-chan events.Event) *Model {
	ctx, cancel := context.WithCancel(ctx)
	clipList := list.New(clipItems(clips), list.NewDefaultDelegate(), 0, 0)
	clipList.Title = "Clips"

	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		view:     ClipListView,
		driver:   driver,
		feed:     feed,
		clipList: clipList,
		snapshot: driver.Snapshot(),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the driver loop and the event log.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startDriver(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clipList.SetSize(msg.Width/2, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		switch update.Phase {
		case tasks.Tick:
			if snap, ok := update.Data.(tasks.Snapshot); ok {
				m.snapshot = snap
			}
		case tasks.RequestFailed:
			m.failures++
			m.notice = styles.err.Render(update.Message)
		}
		return m, m.waitForProgress()

	case MsgRunComplete:
		data := msg.data.(struct {
			result *tasks.RunResult
			err    error
		})
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.view = ResultView
		return m, tea.Quit

	case MsgEngineEvent:
		e := msg.data.(events.Event)
		line := fmt.Sprintf("%7.2fs %s", e.Time, e)
		if e.Kind == events.AudioError {
			line = styles.err.Render(line)
		}
		m.eventLog = append(m.eventLog, line)
		if n := len(m.eventLog); n > eventLines {
			m.eventLog = m.eventLog[n-eventLines:]
		}
		return m, m.waitForEvent()

	case MsgCommandPosted:
		data := msg.data.(struct {
			label    string
			accepted bool
		})
		if data.accepted {
			m.notice = styles.help.Render(data.label)
		} else {
			m.notice = styles.warn.Render("busy, dropped: " + data.label)
		}
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.clipList.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if m.view == ClipListView {
			m.view = SessionView
		} else {
			m.view = ClipListView
		}
		return m, nil
	case key.Matches(msg, m.keys.play):
		if item, ok := m.clipList.SelectedItem().(clipItem); ok {
			return m, m.post("play "+item.clip.ID(), playCommand(item.clip))
		}
		return m, nil
	case key.Matches(msg, m.keys.stopMusic):
		return m, m.post("stop music", func(c *mixer.Coordinator) error { return c.StopBackgroundMusic() })
	case key.Matches(msg, m.keys.stopAll):
		return m, m.post("stop all", func(c *mixer.Coordinator) error {
			c.StopAllAudio()
			return nil
		})
	case key.Matches(msg, m.keys.volumeUp):
		return m, m.post("master up", masterCommand(volumeStep))
	case key.Matches(msg, m.keys.volumeDown):
		return m, m.post("master down", masterCommand(-volumeStep))
	}

	if m.view == ClipListView {
		return m.updateList(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.clipList, cmd = m.clipList.Update(msg)
	return m, cmd
}

// playCommand queues clip on its own channel, aligned to the engine time when it runs.
func playCommand(clip *models.Clip) tasks.Command {
	return func(c *mixer.Coordinator) error {
		c.QueueRequest(mixer.Request{ClipID: clip.ID(), Channel: clip.Channel(), ScheduledTime: c.Now()})
		return nil
	}
}

func masterCommand(delta float64) tasks.Command {
	return func(c *mixer.Coordinator) error {
		return c.SetMasterVolume(c.Status().MasterVolume + delta)
	}
}

func (m *Model) post(label string, cmd tasks.Command) tea.Cmd {
	return func() tea.Msg {
		return commandPostedMsg(label, m.driver.Post(cmd))
	}
}

func (m *Model) startDriver() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 8)

	go func() {
		result, err := m.driver.Run(m.ctx, m.progressChan, 0)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return runCompleteMsg(m.result, m.err)
		}

		update, ok := <-ch
		if !ok {
			return runCompleteMsg(m.result, m.err)
		}
		return progressUpdateMsg(update)
	}
}

// waitForEvent reads the next engine event until the monitor's context ends.
func (m *Model) waitForEvent() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	feed, done := m.feed, m.ctx.Done()
	return func() tea.Msg {
		select {
		case e := <-feed:
			return engineEventMsg(e)
		case <-done:
			return nil
		}
	}
}

// Result is the driver outcome once the monitor has exited.
func (m *Model) Result() (*tasks.RunResult, error) { return m.result, m.err }

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ClipListView:
		return m.renderClipList()
	case SessionView:
		return m.renderSessions()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderHeader() string {
	st := m.snapshot.Status
	bgm := "none"
	if st.CurrentBackgroundClip != "" {
		bgm = st.CurrentBackgroundClip
	}
	return fmt.Sprintf("%s  t=%.2fs  master %s  bgm %s  sfx %d  stems %d",
		styles.title.Render("mixdeck"), m.snapshot.Time, meter(st.MasterVolume, 10), bgm, st.ActiveSoundEffects, st.ActiveStems)
}

func (m *Model) renderClipList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.play, m.keys.stopMusic, m.keys.stopAll, m.keys.toggle, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n%s", m.renderHeader(), m.clipList.View(), m.notice, helpView)
}

func (m *Model) renderSessions() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if len(m.snapshot.Sessions) == 0 {
		b.WriteString(styles.help.Render("No sessions"))
		b.WriteString("\n")
	}
	for _, s := range m.snapshot.Sessions {
		b.WriteString(renderSession(s))
		b.WriteString("\n")
	}

	if len(m.eventLog) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.title.Render("Events"))
		b.WriteString("\n")
		b.WriteString(strings.Join(m.eventLog, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(string(formatter.StatusText(m.snapshot.Status)))
	b.WriteString(m.notice)
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	return b.String()
}

func renderSession(s session.Status) string {
	state := styles.State(s.State).Render(fmt.Sprintf("%-10s", s.StateName))
	line := fmt.Sprintf("%-24s %-5s %s %s %.2f", s.ID, s.Channel, state, meter(s.CurrentVolume, meterWidth), s.CurrentVolume)
	if s.State == session.Scheduled {
		line += styles.help.Render(fmt.Sprintf("  at %.3fs", s.ScheduledAt))
	}
	return line
}

// meter draws v in [0,1] as a bar of width cells.
func meter(v float64, width int) string {
	filled := min(width, max(0, int(v*float64(width)+0.5)))
	return styles.meter.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Engine stopped: %v", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available")
	}
	summary := fmt.Sprintf("✓ %d ticks, %d requests, %d failed, t=%.2fs\n",
		m.result.Ticks, m.result.Dispatched, len(m.result.Failures), m.result.EngineTime)
	return styles.ok.Render(summary)
}
