package tasks

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/shared"
)

func setupDriver(t *testing.T) (*TickDriver, *mixer.Coordinator, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	opts := mixer.DefaultOptions()
	opts.Session = session.Config{MaxVolume: 1, FadeOutEnabled: true, FadeOut: 0.1}
	opts.Sinks = []events.Sink{rec}
	coord := mixer.New(opts)

	for _, clip := range []struct {
		id    string
		ch    models.Channel
		tempo float64
	}{
		{"bgm_main", models.ChannelBGM, 120},
		{"sfx_click", models.ChannelSFX, 0},
		{"stem_drums", models.ChannelStem, 120},
	} {
		if _, err := coord.Catalog().Register(clip.id, clip.id, clip.ch, clip.tempo); err != nil {
			t.Fatalf("register %s: %v", clip.id, err)
		}
	}
	rec.Reset()

	return NewTickDriver(coord, DriverOpts{TickRate: 10}), coord, rec
}

func TestParseCue(t *testing.T) {
	tc := []struct {
		name    string
		in      string
		want    Cue
		wantErr bool
	}{
		{name: "basic", in: "0:bgm:bgm_main", want: Cue{Tick: 0, Request: mixer.Request{ClipID: "bgm_main", Channel: models.ChannelBGM}}},
		{name: "gain", in: "30:stem:stem_drums:0.5", want: Cue{Tick: 30, Request: mixer.Request{ClipID: "stem_drums", Channel: models.ChannelStem, Volume: 0.5}}},
		{name: "alias", in: "5:effect:sfx_click", want: Cue{Tick: 5, Request: mixer.Request{ClipID: "sfx_click", Channel: models.ChannelSFX}}},
		{name: "too few parts", in: "0:bgm", wantErr: true},
		{name: "bad tick", in: "x:bgm:a", wantErr: true},
		{name: "negative tick", in: "-1:bgm:a", wantErr: true},
		{name: "bad channel", in: "0:nope:a", wantErr: true},
		{name: "empty clip", in: "0:bgm:", wantErr: true},
		{name: "gain out of range", in: "0:bgm:a:2", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCue(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCue(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCue(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTickDriverCueOrder(t *testing.T) {
	d, _, _ := setupDriver(t)
	d.Cue(5, mixer.Request{ClipID: "b"})
	d.Cue(1, mixer.Request{ClipID: "a"})
	d.Cue(5, mixer.Request{ClipID: "c"})

	var got []string
	for _, c := range d.cues {
		got = append(got, c.Request.ClipID)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("expected cues a b c, got %v", got)
	}
}

func TestTickDriverRun(t *testing.T) {
	t.Run("Dispatches Cues And Advances Time", func(t *testing.T) {
		d, coord, rec := setupDriver(t)
		d.Cue(0, mixer.Request{ClipID: "bgm_main", Channel: models.ChannelBGM})
		d.Cue(2, mixer.Request{ClipID: "sfx_click", Channel: models.ChannelSFX})

		result, err := d.Run(context.Background(), nil, 10)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		if result.Ticks != 10 || result.Dispatched != 2 || len(result.Failures) != 0 {
			t.Errorf("unexpected result %+v", result)
		}
		if math.Abs(result.EngineTime-1.0) > 1e-9 {
			t.Errorf("expected engine time 1.0, got %v", result.EngineTime)
		}
		if d.Pending() != 0 {
			t.Errorf("expected all cues consumed, %d left", d.Pending())
		}
		if coord.Status().CurrentBackgroundMusic != "bgm_main" {
			t.Error("expected background music to be playing")
		}
		if !rec.Has(events.SoundEffectPlayed, "sfx_click") {
			t.Error("expected sound effect event")
		}
		if err := coord.CheckInvariants(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("Stem Aligns To Bar From Cue Time", func(t *testing.T) {
		d, coord, _ := setupDriver(t)
		d.Cue(5, mixer.Request{ClipID: "stem_drums", Channel: models.ChannelStem})

		if _, err := d.Run(context.Background(), nil, 6); err != nil {
			t.Fatalf("Run: %v", err)
		}

		st, ok := coord.Session("stem_drums")
		if !ok {
			t.Fatal("expected stem session")
		}
		if st.State != session.Scheduled || math.Abs(st.ScheduledAt-2.0) > 1e-9 {
			t.Errorf("expected stem scheduled at 2.0, got %s at %v", st.StateName, st.ScheduledAt)
		}

		if _, err := d.Run(context.Background(), nil, 15); err != nil {
			t.Fatalf("Run: %v", err)
		}
		st, _ = coord.Session("stem_drums")
		if st.State != session.Playing {
			t.Errorf("expected stem playing after bar, got %s", st.StateName)
		}
	})

	t.Run("Collects Failures", func(t *testing.T) {
		d, _, _ := setupDriver(t)
		d.Cue(0, mixer.Request{ClipID: "missing", Channel: models.ChannelBGM})
		d.Cue(1, mixer.Request{ClipID: "bgm_main", Channel: models.ChannelVoice})

		result, err := d.Run(context.Background(), nil, 3)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(result.Failures) != 2 {
			t.Fatalf("expected 2 failures, got %v", result.Failures)
		}
		if !errors.Is(result.Err(), shared.ErrNotFound) || !errors.Is(result.Err(), shared.ErrUnsupportedChannel) {
			t.Errorf("expected joined not found and unsupported channel errors, got %v", result.Err())
		}
	})

	t.Run("Reports Progress", func(t *testing.T) {
		d, _, _ := setupDriver(t)
		d.Cue(0, mixer.Request{ClipID: "bgm_main", Channel: models.ChannelBGM})
		progress := make(chan ProgressUpdate, 16)

		if _, err := d.Run(context.Background(), progress, 3); err != nil {
			t.Fatalf("Run: %v", err)
		}
		close(progress)

		var phases []Phase
		var last Snapshot
		for u := range progress {
			phases = append(phases, u.Phase)
			if snap, ok := u.Data.(Snapshot); ok {
				last = snap
			}
		}

		if len(phases) != 5 || phases[0] != Start || phases[4] != Complete {
			t.Errorf("unexpected phases %v", phases)
		}
		if last.Tick != 3 || last.Status.CurrentBackgroundMusic != "bgm_main" || len(last.Sessions) != 1 {
			t.Errorf("unexpected last snapshot %+v", last)
		}
	})

	t.Run("Progress Never Blocks", func(t *testing.T) {
		d, _, _ := setupDriver(t)
		progress := make(chan ProgressUpdate)

		result, err := d.Run(context.Background(), progress, 50)
		if err != nil || result.Ticks != 50 {
			t.Fatalf("expected 50 ticks without blocking, got %d (%v)", result.Ticks, err)
		}
	})

	t.Run("Cancelled Bounded Run", func(t *testing.T) {
		d, _, _ := setupDriver(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := d.Run(ctx, nil, 5); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Unbounded Run Stops On Context", func(t *testing.T) {
		coord := mixer.New(mixer.DefaultOptions())
		d := NewTickDriver(coord, DriverOpts{TickRate: 1000, Paced: true})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		result, err := d.Run(ctx, nil, 0)
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
		if result.Ticks == 0 {
			t.Error("expected some ticks before the deadline")
		}
	})
}

func TestTickDriverPost(t *testing.T) {
	d, coord, _ := setupDriver(t)

	ok := d.Post(func(c *mixer.Coordinator) error {
		return c.PlayBackgroundMusic("bgm_main")
	})
	if !ok {
		t.Fatal("expected command to be accepted")
	}
	d.Post(func(c *mixer.Coordinator) error { return c.SetMasterVolume(0.5) })
	d.Post(func(c *mixer.Coordinator) error { return c.StopBackgroundMusic() })
	d.Post(func(c *mixer.Coordinator) error { return c.StopBackgroundMusic() })

	result, err := d.Run(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(result.Err(), shared.ErrNothingPlaying) {
		t.Errorf("expected the second stop to fail, got %v", result.Err())
	}
	if got := coord.Status().MasterVolume; got != 0.5 {
		t.Errorf("expected master volume 0.5, got %v", got)
	}

	t.Run("Full Inbox", func(t *testing.T) {
		d, _, _ := setupDriver(t)
		noop := func(*mixer.Coordinator) error { return nil }
		for range inboxSize {
			if !d.Post(noop) {
				t.Fatal("expected inbox to accept commands up to its size")
			}
		}
		if d.Post(noop) {
			t.Error("expected full inbox to reject")
		}
	})
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{Start: "start", Tick: "tick", RequestFailed: "request_failed", Complete: "complete", Phase(99): ""} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}
