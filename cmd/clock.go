package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixdeck/internal/clock"
	"github.com/desertthunder/mixdeck/internal/mixer"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// clockFor builds the configured clock and reads --time and --tempo.
func (r *Runner) clockFor(cmd *cli.Command) (*clock.Clock, float64, float64, error) {
	config, err := r.configFor(cmd)
	if err != nil {
		return nil, 0, 0, err
	}
	opts, err := mixer.OptionsFromConfig(config)
	if err != nil {
		return nil, 0, 0, err
	}

	t := cmd.Float("time")
	if t < 0 {
		return nil, 0, 0, fmt.Errorf("%w: --time must not be negative", shared.ErrInvalidFlag)
	}
	return opts.Clock, t, cmd.Float("tempo"), nil
}

func parseAlign(cmd *cli.Command) (clock.Alignment, error) {
	a, err := clock.ParseAlignment(cmd.String("align"))
	if err != nil {
		return a, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return a, nil
}

// ClockNext prints the next grid boundary at or after --time.
func (r *Runner) ClockNext(ctx context.Context, cmd *cli.Command) error {
	c, t, bpm, err := r.clockFor(cmd)
	if err != nil {
		return err
	}
	align, err := parseAlign(cmd)
	if err != nil {
		return err
	}

	next := t + c.GridAlignmentOffset(t, bpm, align)
	r.writePlain("%s\n", c.Timing(bpm))
	return r.writePlain("next %s at %.6fs (%s)\n", align, next, c.Position(next, bpm))
}

// ClockPosition prints the musical position of --time.
func (r *Runner) ClockPosition(ctx context.Context, cmd *cli.Command) error {
	c, t, bpm, err := r.clockFor(cmd)
	if err != nil {
		return err
	}

	p := c.Position(t, bpm)
	r.writePlain("%s\n", c.Timing(bpm))
	r.writePlain("position %s\n", p)
	return r.writePlain("bar %.1f%%  beat %.1f%%  subdivision %.1f%%\n", p.BarProgress*100, p.BeatProgress*100, p.SubdivisionProgress*100)
}

// ClockOffset prints the wait from --time to the next boundary.
func (r *Runner) ClockOffset(ctx context.Context, cmd *cli.Command) error {
	c, t, bpm, err := r.clockFor(cmd)
	if err != nil {
		return err
	}
	align, err := parseAlign(cmd)
	if err != nil {
		return err
	}

	return r.writePlain("%.6f\n", c.GridAlignmentOffset(t, bpm, align))
}

// ClockGroove prints --time after applying a groove template.
func (r *Runner) ClockGroove(ctx context.Context, cmd *cli.Command) error {
	c, t, bpm, err := r.clockFor(cmd)
	if err != nil {
		return err
	}
	g, err := clock.ParseGroove(cmd.String("groove"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	shifted := c.ApplyGroove(t, bpm, g)
	r.writePlain("%s\n", c.Summary())
	return r.writePlain("%s: %.6fs -> %.6fs (%+.6fs)\n", g, t, shifted, shifted-t)
}
