package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/nightspot/internal/domain"
)

// VenueRepo defines read access to the venue catalogue.
type VenueRepo interface {
	// Random returns one venue chosen uniformly at random.
	// Returns domain.ErrNotFound if the catalogue is empty.
	Random(ctx context.Context) (domain.Venue, error)
}

// pgVenueRepo is the Postgres implementation of VenueRepo.
type pgVenueRepo struct {
	db db
}

// NewVenueRepo constructs a VenueRepo backed by the provided db connection.
func NewVenueRepo(db db) VenueRepo {
	return &pgVenueRepo{db: db}
}

// Random picks a row with ORDER BY random(); the catalogue is a handful of
// rows so the full sort is irrelevant.
func (r *pgVenueRepo) Random(ctx context.Context) (domain.Venue, error) {
	const q = `
		SELECT name, address, type, description
		FROM venues
		ORDER BY random()
		LIMIT 1`

	var v domain.Venue
	err := r.db.QueryRow(ctx, q).Scan(&v.Name, &v.Address, &v.Type, &v.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Venue{}, fmt.Errorf("repo.VenueRepo.Random: %w", domain.ErrNotFound)
		}
		return domain.Venue{}, fmt.Errorf("repo.VenueRepo.Random: %w", err)
	}
	return v, nil
}
