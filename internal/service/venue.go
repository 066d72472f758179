package service

import (
	"context"
	"log/slog"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/metrics"
	"github.com/pkordes/nightspot/internal/repo"
)

// FallbackVenue is used whenever the catalogue cannot supply a venue.
var FallbackVenue = domain.Venue{
	Name:        "Downtown Social",
	Address:     "1603 Orrington Ave, Evanston, IL 60201",
	Type:        "bar",
	Description: "Default meeting point",
}

// VenuePicker chooses where a matched group meets. Pick never fails.
type VenuePicker interface {
	Pick(ctx context.Context) domain.Venue
}

// CatalogPicker draws a random venue from a repo.VenueRepo and falls back to
// FallbackVenue when the catalogue is empty or unreachable.
type CatalogPicker struct {
	venues  repo.VenueRepo
	log     *slog.Logger
	metrics *metrics.Matching
}

// NewCatalogPicker constructs a CatalogPicker over the given repo.
func NewCatalogPicker(venues repo.VenueRepo, log *slog.Logger, m *metrics.Matching) *CatalogPicker {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogPicker{venues: venues, log: log, metrics: m}
}

// Pick returns a random catalogue venue, or FallbackVenue when none is available.
func (p *CatalogPicker) Pick(ctx context.Context) domain.Venue {
	v, err := p.venues.Random(ctx)
	if err != nil {
		p.log.WarnContext(ctx, "venue lookup failed, using fallback", "error", err)
		p.metrics.VenueFallback()
		return FallbackVenue
	}
	return v
}
