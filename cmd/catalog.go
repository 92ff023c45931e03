package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/mixdeck/internal/catalog"
	"github.com/desertthunder/mixdeck/internal/formatter"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadCatalog builds the catalog from the manifest. Invalid entries are logged and skipped.
func (r *Runner) loadCatalog(cmd *cli.Command) (*catalog.Catalog, error) {
	config, err := r.configFor(cmd)
	if err != nil {
		return nil, err
	}

	coord, err := r.newCoordinator(config)
	if err != nil {
		r.logger.Warn("some manifest clips were skipped", "error", err)
	}
	if coord == nil {
		return nil, err
	}
	return coord.Catalog(), nil
}

// CatalogList lists clips, narrowed by any combination of channel, category and tempo.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	cat, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	clips := cat.List()
	if name := cmd.String("channel"); name != "" {
		ch, err := models.ParseChannel(name)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		clips = intersect(clips, cat.ByChannel(ch))
	}
	if category := cmd.String("category"); category != "" {
		clips = intersect(clips, cat.ByCategory(category))
	}
	if cmd.IsSet("tempo") {
		clips = intersect(clips, cat.ByTempo(cmd.Float("tempo"), cmd.Float("tolerance")))
	}

	data, err := formatter.Render(format, "Catalog", clips, cat.Statistics())
	if err != nil {
		return err
	}
	return r.write(data)
}

// intersect keeps the clips of base whose ids appear in filter, in base order.
func intersect(base, filter []*models.Clip) []*models.Clip {
	ids := make(map[string]struct{}, len(filter))
	for _, c := range filter {
		ids[c.ID()] = struct{}{}
	}
	return slices.DeleteFunc(base, func(c *models.Clip) bool {
		_, ok := ids[c.ID()]
		return !ok
	})
}

// CatalogSearch prints clips whose id, name, category or tags contain the query.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	cat, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	clips := cat.Search(query, int(cmd.Int("limit")))
	r.logger.Debug("search", "query", query, "results", len(clips))
	if len(clips) == 0 && format == formatter.FormatText {
		return r.writePlain("No clips match %q\n", query)
	}

	data, err := formatter.Render(format, "Search: "+query, clips, cat.Statistics())
	if err != nil {
		return err
	}
	return r.write(data)
}

// CatalogStats prints catalog statistics.
func (r *Runner) CatalogStats(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	cat, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}
	stats := cat.Statistics()

	switch format {
	case formatter.FormatCSV:
		data, err := formatter.StatisticsCSV(stats)
		if err != nil {
			return err
		}
		return r.write(data)
	case formatter.FormatJSON:
		byChannel := map[string]int{}
		for ch, n := range stats.ByChannel {
			byChannel[ch.String()] = n
		}
		byTempo := map[string]int{}
		for bpm, n := range stats.ByTempo {
			byTempo[formatter.FormatTempo(bpm)] = n
		}
		return r.writeJSON(map[string]any{
			"total":       stats.Total,
			"by_channel":  byChannel,
			"by_category": stats.ByCategory,
			"by_tempo":    byTempo,
		}, true)
	case formatter.FormatMarkdown:
		data, err := formatter.CatalogMarkdown("Catalog", nil, stats)
		if err != nil {
			return err
		}
		return r.write(data)
	}

	r.writePlainHeader(cat.Summary())
	for _, ch := range models.Channels() {
		if n, ok := stats.ByChannel[ch]; ok {
			r.writePlain("%-10s %3d  %5.1f%%\n", ch, n, stats.ChannelDistribution[ch])
		}
	}
	r.writePlainln("Categories:")
	for _, c := range stats.Categories() {
		r.writePlain("  %-16s %d\n", c, stats.ByCategory[c])
	}
	r.writePlainln("Tempos:")
	for _, bpm := range stats.Tempos() {
		r.writePlain("  %-16s %d\n", formatter.FormatTempo(bpm), stats.ByTempo[bpm])
	}
	return nil
}

// CatalogExport writes the catalog to disk.
func (r *Runner) CatalogExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	cat, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	result, err := formatter.WriteCatalogExport(format, cmd.String("output"), cat.List(), cat.Statistics())
	if err != nil {
		return err
	}

	r.logger.Info("catalog exported", "file", result.ClipsFile, "clips", cat.Len())
	r.writePlain("✓ %d clips written to %s\n", cat.Len(), result.ClipsFile)
	if result.StatsFile != "" {
		r.writePlain("✓ Statistics written to %s\n", result.StatsFile)
	}
	return nil
}

// CatalogVerify registers the manifest strictly and checks index consistency.
func (r *Runner) CatalogVerify(ctx context.Context, cmd *cli.Command) error {
	config, err := r.configFor(cmd)
	if err != nil {
		return err
	}

	coord, regErr := r.newCoordinator(config)
	if coord == nil {
		return regErr
	}
	cat := coord.Catalog()

	r.writePlain("%s\n", cat.Summary())
	if regErr != nil {
		r.writePlain("✗ manifest has %d invalid clips\n", len(config.Clips)-cat.Len())
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, regErr)
	}
	if err := cat.CheckIndices(); err != nil {
		return fmt.Errorf("catalog index check failed: %w", err)
	}

	r.writePlain("✓ %d clips valid, indices consistent\n", cat.Len())
	return nil
}
