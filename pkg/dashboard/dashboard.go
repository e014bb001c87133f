// Package dashboard shows how many records each catalog collection holds.
package dashboard

import (
	"context"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/notify"
)

// Group splits the cards the way the home screen lays them out.
type Group string

const (
	GroupCatalog Group = "catalog"
	GroupSamples Group = "samples"
)

// Card links to one collection.
type Card struct {
	Label string           `json:"label"`
	Key   string           `json:"key"`
	Path  string           `json:"path"`
	Group Group            `json:"group"`
	Count int              `json:"count"`
	Res   catalog.Resource `json:"resource"`
}

var cards = []Card{
	card("Brands", catalog.Brands, GroupCatalog),
	card("Product types", catalog.ProductTypes, GroupCatalog),
	card("Fits", catalog.Fits, GroupCatalog),
	card("Fabrics", catalog.Fabrics, GroupCatalog),
	card("Threads", catalog.Threads, GroupCatalog),
	card("Sewing states", catalog.SewingStates, GroupCatalog),
	card("Base samples", catalog.BaseSamples, GroupSamples),
	card("Bases", catalog.Bases, GroupSamples),
	card("Sheets", catalog.Sheets, GroupSamples),
	card("Cutting layouts", catalog.CuttingLayouts, GroupSamples),
	card("Models", catalog.Models, GroupSamples),
}

func card(label string, r catalog.Resource, g Group) Card {
	return Card{Label: label, Key: r.StatKey(), Path: "/" + string(r), Group: g, Res: r}
}

// Cards returns the cards with zero counts.
func Cards() []Card { return append([]Card(nil), cards...) }

// StatsSource is satisfied by *catalog.Client.
type StatsSource interface {
	Stats(ctx context.Context) (catalog.Stats, error)
}

// Summary is a loaded dashboard.
type Summary struct {
	Cards []Card `json:"cards"`
	Total int    `json:"total"`
}

// Load fetches the stats once and fills every card; keys the backend does
// not report count as zero. On failure the cards are returned with zero
// counts alongside the error.
func Load(ctx context.Context, src StatsSource, n notify.Notifier) (Summary, error) {
	if n == nil {
		n = notify.Discard
	}
	out := Summary{Cards: Cards()}

	stats, err := src.Stats(ctx)
	if err != nil {
		logger.WithCtx(ctx).Warn("dashboard: stats failed", "error", err)
		n.Error("could not load the dashboard")
		return out, err
	}

	for i := range out.Cards {
		out.Cards[i].Count = stats[out.Cards[i].Key]
	}
	for _, v := range stats {
		out.Total += v
	}
	return out, nil
}
