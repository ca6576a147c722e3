package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// ProfileResolver maps a wallet address to the profile object it owns.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, address string) models.Profile
}

type profileResolver struct {
	ledger       LedgerReader
	materializer ObjectMaterializer
	packageID    string
	logger       zerolog.Logger
}

// NewProfileResolver constructs a resolver that looks for Student, then Investor, objects.
func NewProfileResolver(ledger LedgerReader, materializer ObjectMaterializer, packageID string, logger zerolog.Logger) ProfileResolver {
	return &profileResolver{
		ledger:       ledger,
		materializer: materializer,
		packageID:    packageID,
		logger:       logger.With().Str("component", "profile_resolver").Logger(),
	}
}

// ResolveProfile never fails: lookup or decode errors are logged and reported as no profile.
// When an address owns several objects of one type the first in RPC order wins.
func (r *profileResolver) ResolveProfile(ctx context.Context, address string) models.Profile {
	if address == "" {
		return models.NoProfile()
	}

	for _, kind := range []models.EntityKind{models.EntityStudent, models.EntityInvestor} {
		entity, err := r.firstOwned(ctx, address, kind)
		if err != nil {
			r.logger.Warn().Err(err).Str("address", address).Str("kind", string(kind)).Msg("profile lookup failed")
			return models.NoProfile()
		}
		if entity == nil {
			continue
		}

		switch profile := entity.(type) {
		case models.Student:
			return models.StudentProfile(profile)
		case models.Investor:
			return models.InvestorProfile(profile)
		}
	}

	return models.NoProfile()
}

func (r *profileResolver) firstOwned(ctx context.Context, address string, kind models.EntityKind) (models.Entity, error) {
	query := sui.ObjectResponseQuery{
		Filter:  &sui.ObjectFilter{StructType: models.StructType(r.packageID, kind)},
		Options: &sui.ObjectDataOptions{ShowType: true, ShowOwner: true, ShowContent: true},
	}

	page, err := r.ledger.GetOwnedObjects(ctx, address, query, nil, 0)
	if err != nil {
		return nil, err
	}

	for _, item := range page.Data {
		if item.Data == nil {
			continue
		}
		return r.materializer.Decode(item.Data, kind)
	}
	return nil, nil
}
