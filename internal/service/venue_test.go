package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/service"
)

func TestCatalogPicker_Pick(t *testing.T) {
	want := domain.Venue{Name: "Bat 17", Address: "1709 Benson Ave", Type: "restaurant"}
	p := service.NewCatalogPicker(&mockVenueRepo{
		random: func(context.Context) (domain.Venue, error) { return want, nil },
	}, discardLogger(), nil)

	assert.Equal(t, want, p.Pick(context.Background()))
}

func TestCatalogPicker_Pick_Fallback(t *testing.T) {
	for name, err := range map[string]error{
		"empty catalogue": domain.ErrNotFound,
		"database down":   errors.New("connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			p := service.NewCatalogPicker(&mockVenueRepo{
				random: func(context.Context) (domain.Venue, error) { return domain.Venue{}, err },
			}, discardLogger(), nil)

			assert.Equal(t, service.FallbackVenue, p.Pick(context.Background()))
		})
	}
}
