package mixer

import (
	"errors"
	"fmt"

	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Request is a deferred play call.
type Request struct {
	ClipID        string
	Channel       models.Channel
	ScheduledTime float64 // Current time passed to stem alignment
	Volume        float64 // Gain on top of the channel mix; 0 means unity
	Loop          bool
}

func (r Request) options() playOptions {
	po := playOptions{gain: 1, loop: r.Loop}
	if r.Volume > 0 {
		po.gain = clamp01(r.Volume)
	}
	return po
}

// QueueRequest appends r to the pending FIFO. Nothing plays until [Coordinator.ProcessQueue].
func (c *Coordinator) QueueRequest(r Request) {
	c.state.PendingRequests = append(c.state.PendingRequests, r)
	c.bus.Emit(events.Event{Kind: events.RequestQueued, Subject: r.ClipID, ClipID: r.ClipID, Channel: r.Channel, Time: r.ScheduledTime})
}

// Pending is the number of queued requests.
func (c *Coordinator) Pending() int { return len(c.state.PendingRequests) }

// ProcessQueue drains the queue in order, dispatching by channel: background music, sound effects and stems.
//
// It returns how many requests were drained and the joined errors of the ones that failed.
// A failed request does not stop the rest.
func (c *Coordinator) ProcessQueue() (int, error) {
	pending := c.state.PendingRequests
	c.state.PendingRequests = nil

	var errs []error
	for i, r := range pending {
		if err := c.dispatch(r); err != nil {
			errs = append(errs, fmt.Errorf("request %d (%s %s): %w", i, r.Channel, r.ClipID, err))
		}
	}
	c.lastUpdate = c.now
	return len(pending), errors.Join(errs...)
}

func (c *Coordinator) dispatch(r Request) error {
	po := r.options()
	switch r.Channel {
	case models.ChannelBGM:
		return c.playBackgroundMusic(r.ClipID, po)
	case models.ChannelSFX:
		return c.playSoundEffect(r.ClipID, po)
	case models.ChannelStem:
		return c.playStemSynchronized(r.ClipID, r.ScheduledTime, po)
	default:
		return c.fail(r.ClipID, fmt.Errorf("%w: %s", shared.ErrUnsupportedChannel, r.Channel))
	}
}
