package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultTickRate is the engine update frequency used when none is configured.
const DefaultTickRate = 60.0

// Cue is a request queued when the driver reaches Tick.
type Cue struct {
	Tick    int
	Request mixer.Request
}

// ParseCue reads a cue written as "tick:channel:clip[:gain]", e.g. "30:stem:stem_drums:0.5".
func ParseCue(s string) (Cue, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Cue{}, fmt.Errorf("%w: cue %q, expected tick:channel:clip[:gain]", shared.ErrInvalidArgument, s)
	}

	tick, err := strconv.Atoi(parts[0])
	if err != nil || tick < 0 {
		return Cue{}, fmt.Errorf("%w: cue tick %q", shared.ErrInvalidArgument, parts[0])
	}
	ch, err := models.ParseChannel(parts[1])
	if err != nil {
		return Cue{}, err
	}
	if parts[2] == "" {
		return Cue{}, fmt.Errorf("%w: cue %q has no clip", shared.ErrInvalidArgument, s)
	}

	cue := Cue{Tick: tick, Request: mixer.Request{ClipID: parts[2], Channel: ch}}
	if len(parts) == 4 {
		gain, err := strconv.ParseFloat(parts[3], 64)
		if err != nil || gain < 0 || gain > 1 {
			return Cue{}, fmt.Errorf("%w: cue gain %q", shared.ErrInvalidArgument, parts[3])
		}
		cue.Request.Volume = gain
	}
	return cue, nil
}

// Command runs on the driver goroutine with exclusive access to the coordinator.
type Command func(*mixer.Coordinator) error

// inboxSize bounds the commands accepted between two ticks.
const inboxSize = 64

// DriverOpts configures a [TickDriver].
type DriverOpts struct {
	TickRate float64     // Engine updates per second; also the wall-clock pace when Paced
	Paced    bool        // Wait for the rate limiter between ticks
	Logger   *log.Logger // Discards when nil
}

// Snapshot is an immutable copy of the mix taken after a tick.
type Snapshot struct {
	Tick     int
	Time     float64
	Status   mixer.Status
	Sessions []session.Status
}

// RunResult summarizes a [TickDriver.Run].
type RunResult struct {
	Ticks      int
	Dispatched int
	Failures   []error
	EngineTime float64
	Final      Snapshot
}

// Err joins the request failures, or returns nil when every request played.
func (r *RunResult) Err() error { return errors.Join(r.Failures...) }

// TickDriver is the control thread for a [mixer.Coordinator].
//
// Each tick it queues due cues, drains the request queue, and advances engine time by 1/TickRate.
// Nothing else may call the coordinator while Run is active.
type TickDriver struct {
	coord   *mixer.Coordinator
	limiter *rate.Limiter
	logger  *log.Logger
	dt      float64
	tick    int
	now     float64
	cues    []Cue
	inbox   chan Command
}

// NewTickDriver creates a driver starting at engine time zero.
func NewTickDriver(coord *mixer.Coordinator, opts DriverOpts) *TickDriver {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if opts.Paced {
		limit = rate.Limit(opts.TickRate)
	}

	return &TickDriver{
		coord:   coord,
		limiter: rate.NewLimiter(limit, 1),
		logger:  opts.Logger,
		dt:      1 / opts.TickRate,
		inbox:   make(chan Command, inboxSize),
	}
}

// Cue schedules r for the given tick. Cues for ticks already run are queued on the next tick.
func (d *TickDriver) Cue(tick int, r mixer.Request) {
	c := Cue{Tick: tick, Request: r}
	i, _ := slices.BinarySearchFunc(d.cues, c, func(a, b Cue) int {
		if a.Tick <= b.Tick {
			return -1
		}
		return 1
	})
	d.cues = slices.Insert(d.cues, i, c)
}

// Post hands cmd to the driver, to run at the start of the next tick. It is safe to call from any
// goroutine and reports false when the inbox is full.
func (d *TickDriver) Post(cmd Command) bool {
	select {
	case d.inbox <- cmd:
		return true
	default:
		return false
	}
}

// Pending is the number of cues not yet queued.
func (d *TickDriver) Pending() int { return len(d.cues) }

// Now is the current engine time in seconds.
func (d *TickDriver) Now() float64 { return d.now }

// Step is the engine time advanced per tick.
func (d *TickDriver) Step() float64 { return d.dt }

// sendProgress sends a progress update through the channel without blocking.
func (d *TickDriver) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run drives the coordinator for ticks ticks, or until ctx is done when ticks <= 0.
//
// Request failures do not stop the run; they are collected in the result. Run only returns an
// error when the context ends a bounded run early.
func (d *TickDriver) Run(ctx context.Context, progress chan<- ProgressUpdate, ticks int) (*RunResult, error) {
	result := &RunResult{}
	d.sendProgress(progress, startUpdate(ticks, d.dt))

	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := d.limiter.Wait(ctx); err != nil {
			result.Final = d.Snapshot()
			if ticks <= 0 {
				d.sendProgress(progress, completeUpdate(result))
				return result, nil
			}
			return result, fmt.Errorf("tick %d: %w", d.tick, err)
		}

		n, err := d.advance()
		result.Ticks++
		result.Dispatched += n
		if err != nil {
			result.Failures = append(result.Failures, err)
			d.logger.Warn("request failed", "tick", d.tick-1, "err", err)
			d.sendProgress(progress, failureUpdate(i+1, ticks, err))
		}
		result.EngineTime = d.now

		snap := d.Snapshot()
		d.sendProgress(progress, tickUpdate(i+1, ticks, snap))
	}

	result.Final = d.Snapshot()
	d.sendProgress(progress, completeUpdate(result))
	return result, nil
}

// advance runs one tick: posted commands and due requests run at the current time, then sessions
// move forward one step.
func (d *TickDriver) advance() (int, error) {
	var errs []error
	for drained := false; !drained; {
		select {
		case cmd := <-d.inbox:
			if err := cmd(d.coord); err != nil {
				errs = append(errs, err)
			}
		default:
			drained = true
		}
	}

	for len(d.cues) > 0 && d.cues[0].Tick <= d.tick {
		r := d.cues[0].Request
		if r.ScheduledTime == 0 {
			r.ScheduledTime = d.now
		}
		d.coord.QueueRequest(r)
		d.cues = d.cues[1:]
	}

	n := 0
	if d.coord.Pending() > 0 {
		var err error
		n, err = d.coord.ProcessQueue()
		errs = append(errs, err)
	}

	d.now += d.dt
	d.tick++
	d.coord.Update(d.now, d.dt)
	return n, errors.Join(errs...)
}

// Snapshot copies the coordinator's current status.
func (d *TickDriver) Snapshot() Snapshot {
	return Snapshot{
		Tick:     d.tick,
		Time:     d.now,
		Status:   d.coord.Status(),
		Sessions: d.coord.Sessions(),
	}
}
