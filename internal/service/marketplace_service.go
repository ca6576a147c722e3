package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/edudefi-go-api/internal/models"
)

// ErrEntityNotFound is returned when a requested ledger object does not exist or is of
// another type.
var ErrEntityNotFound = errors.New("entity not found")

// MarketplaceService lists registered students and investors and looks up contracts.
type MarketplaceService interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	ListInvestors(ctx context.Context) ([]models.Investor, error)
	GetStudent(ctx context.Context, id string) (models.Student, error)
	GetInvestor(ctx context.Context, id string) (models.Investor, error)
	GetContract(ctx context.Context, id string) (models.Contract, error)
	ContractsFor(ctx context.Context, address string) ([]models.Contract, error)
}

type marketplaceService struct {
	walker       RegistryWalker
	materializer ObjectMaterializer
	registryID   string
	fanout       int
	logger       zerolog.Logger
}

// NewMarketplaceService constructs the listing service.
func NewMarketplaceService(walker RegistryWalker, materializer ObjectMaterializer, registryID string, fanout int, logger zerolog.Logger) MarketplaceService {
	if fanout <= 0 {
		fanout = 1
	}
	return &marketplaceService{
		walker:       walker,
		materializer: materializer,
		registryID:   registryID,
		fanout:       fanout,
		logger:       logger.With().Str("component", "marketplace_service").Logger(),
	}
}

func (s *marketplaceService) ListStudents(ctx context.Context) ([]models.Student, error) {
	entities, err := s.list(ctx, models.CollectionStudents, models.EntityStudent)
	if err != nil {
		return nil, err
	}

	students := make([]models.Student, 0, len(entities))
	for _, entity := range entities {
		if student, ok := entity.(models.Student); ok {
			students = append(students, student)
		}
	}
	return students, nil
}

func (s *marketplaceService) ListInvestors(ctx context.Context) ([]models.Investor, error) {
	entities, err := s.list(ctx, models.CollectionInvestors, models.EntityInvestor)
	if err != nil {
		return nil, err
	}

	investors := make([]models.Investor, 0, len(entities))
	for _, entity := range entities {
		if investor, ok := entity.(models.Investor); ok {
			investors = append(investors, investor)
		}
	}
	return investors, nil
}

func (s *marketplaceService) GetStudent(ctx context.Context, id string) (models.Student, error) {
	student, err := s.materializer.Student(ctx, id)
	if err != nil {
		return models.Student{}, err
	}
	if student == nil {
		return models.Student{}, ErrEntityNotFound
	}
	return *student, nil
}

func (s *marketplaceService) GetInvestor(ctx context.Context, id string) (models.Investor, error) {
	investor, err := s.materializer.Investor(ctx, id)
	if err != nil {
		return models.Investor{}, err
	}
	if investor == nil {
		return models.Investor{}, ErrEntityNotFound
	}
	return *investor, nil
}

func (s *marketplaceService) GetContract(ctx context.Context, id string) (models.Contract, error) {
	contract, err := s.materializer.Contract(ctx, id)
	if err != nil {
		return models.Contract{}, err
	}
	if contract == nil {
		return models.Contract{}, ErrEntityNotFound
	}
	return *contract, nil
}

func (s *marketplaceService) ContractsFor(ctx context.Context, address string) ([]models.Contract, error) {
	ids, err := s.walker.MembersForKey(ctx, s.registryID, models.CollectionContracts, address)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("contracts unavailable, returning empty list")
		return []models.Contract{}, nil
	}

	entities, err := s.materializeAll(ctx, ids, models.EntityContract)
	if err != nil {
		return nil, err
	}

	contracts := make([]models.Contract, 0, len(entities))
	for _, entity := range entities {
		if contract, ok := entity.(models.Contract); ok {
			contracts = append(contracts, contract)
		}
	}
	return contracts, nil
}

// list walks collection and materializes every member. An unavailable collection is logged
// and listed as empty; members whose objects vanished are skipped.
func (s *marketplaceService) list(ctx context.Context, collection string, kind models.EntityKind) ([]models.Entity, error) {
	ids, err := s.walker.ListMembers(ctx, s.registryID, collection)
	if err != nil {
		if errors.Is(err, ErrCollectionUnavailable) {
			s.logger.Warn().Err(err).Str("collection", collection).Msg("collection unavailable, returning empty list")
			return nil, nil
		}
		return nil, err
	}

	return s.materializeAll(ctx, ids, kind)
}

func (s *marketplaceService) materializeAll(ctx context.Context, ids []string, kind models.EntityKind) ([]models.Entity, error) {
	results := make([]models.Entity, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.fanout)
	for i, id := range ids {
		group.Go(func() error {
			entity, err := s.materializer.Materialize(groupCtx, id, kind)
			if err != nil {
				s.logger.Warn().Err(err).Str("object_id", id).Str("kind", string(kind)).Msg("skipping undecodable object")
				return nil
			}
			results[i] = entity
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	entities := make([]models.Entity, 0, len(results))
	for _, entity := range results {
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
