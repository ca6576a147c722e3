package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/internal/observability"
)

// DefaultAvatar is shown when a profile has no image.
const DefaultAvatar = "/default-avatar.png"

const sessionCachePrefix = "edudefi:session:"

// SessionView is the presentation state derived from a snapshot.
type SessionView struct {
	DisplayName     string `json:"display_name"`
	Initials        string `json:"initials"`
	ProfileImage    string `json:"profile_image"`
	IsStudent       bool   `json:"is_student"`
	IsInvestor      bool   `json:"is_investor"`
	HasProfile      bool   `json:"has_profile"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// SessionSnapshot is everything known about one address. It holds no wall-clock values, so
// recomputing it without ledger changes yields identical bytes.
type SessionSnapshot struct {
	Address   string            `json:"address"`
	Profile   models.Profile    `json:"profile"`
	Contracts []models.Contract `json:"contracts"`
	View      SessionView       `json:"view"`
}

// ProfileSessionService caches the resolved profile and contracts of wallet addresses.
type ProfileSessionService interface {
	Session(ctx context.Context, address string) (SessionSnapshot, error)
	Refresh(ctx context.Context, address string) (SessionSnapshot, error)
	Invalidate(ctx context.Context, addresses ...string)
	Start(ctx context.Context)
}

type profileSessionService struct {
	resolver     ProfileResolver
	walker       RegistryWalker
	materializer ObjectMaterializer
	registryID   string
	bus          TransactionEventBus
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer

	mu    sync.RWMutex
	local map[string][]byte
}

// NewProfileSessionService builds the session cache. Without redis, snapshots are kept in
// process for the lifetime of the service.
func NewProfileSessionService(resolver ProfileResolver, walker RegistryWalker, materializer ObjectMaterializer, registryID string, bus TransactionEventBus, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProfileSessionService {
	return &profileSessionService{
		resolver:     resolver,
		walker:       walker,
		materializer: materializer,
		registryID:   registryID,
		bus:          bus,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "profile_session_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/edudefi-go-api/internal/service/session"),
		local:        make(map[string][]byte),
	}
}

// Start invalidates cached snapshots of every address named in a transaction event.
func (s *profileSessionService) Start(ctx context.Context) {
	if s.bus == nil {
		return
	}
	s.bus.Subscribe(func(event TransactionEvent) {
		s.Invalidate(ctx, event.Addresses...)
	})
}

func (s *profileSessionService) Session(ctx context.Context, address string) (SessionSnapshot, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return anonymousSnapshot(), nil
	}

	if payload, ok := s.load(ctx, address); ok {
		var snapshot SessionSnapshot
		if err := json.Unmarshal(payload, &snapshot); err == nil {
			observability.SessionCache().WithLabelValues("hit").Inc()
			return snapshot, nil
		}
	}

	observability.SessionCache().WithLabelValues("miss").Inc()
	return s.compute(ctx, address)
}

func (s *profileSessionService) Refresh(ctx context.Context, address string) (SessionSnapshot, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return anonymousSnapshot(), nil
	}

	s.Invalidate(ctx, address)
	observability.SessionCache().WithLabelValues("refresh").Inc()
	return s.compute(ctx, address)
}

func (s *profileSessionService) Invalidate(ctx context.Context, addresses ...string) {
	keys := make([]string, 0, len(addresses))
	s.mu.Lock()
	for _, address := range addresses {
		if address == "" {
			continue
		}
		delete(s.local, address)
		keys = append(keys, sessionCachePrefix+address)
	}
	s.mu.Unlock()

	if s.cache == nil || len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate session cache")
	}
}

func (s *profileSessionService) compute(ctx context.Context, address string) (SessionSnapshot, error) {
	spanCtx, span := s.tracer.Start(ctx, "session.compute", trace.WithAttributes(attribute.String("session.address", address)))
	defer span.End()

	profile := s.resolver.ResolveProfile(spanCtx, address)
	contracts := s.contractsFor(spanCtx, address)

	snapshot := SessionSnapshot{
		Address:   address,
		Profile:   profile,
		Contracts: contracts,
		View:      deriveView(address, profile),
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		span.RecordError(err)
		return SessionSnapshot{}, err
	}
	s.store(spanCtx, address, payload)

	return snapshot, nil
}

// contractsFor walks the contracts table under address and materializes every entry. Listing
// failures degrade to an empty list.
func (s *profileSessionService) contractsFor(ctx context.Context, address string) []models.Contract {
	contracts := make([]models.Contract, 0)

	ids, err := s.walker.MembersForKey(ctx, s.registryID, models.CollectionContracts, address)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("contracts collection unavailable")
		return contracts
	}

	for _, id := range ids {
		contract, err := s.materializer.Contract(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("contract_id", id).Msg("skipping undecodable contract")
			continue
		}
		if contract == nil {
			continue
		}
		contracts = append(contracts, *contract)
	}
	return contracts
}

func (s *profileSessionService) load(ctx context.Context, address string) ([]byte, bool) {
	if s.cache == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		payload, ok := s.local[address]
		return payload, ok
	}

	payload, err := s.cache.Get(ctx, sessionCachePrefix+address).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read session cache")
		}
		return nil, false
	}
	return payload, true
}

func (s *profileSessionService) store(ctx context.Context, address string, payload []byte) {
	if s.cache == nil {
		s.mu.Lock()
		s.local[address] = payload
		s.mu.Unlock()
		return
	}

	if err := s.cache.Set(ctx, sessionCachePrefix+address, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store session cache")
	}
}

func anonymousSnapshot() SessionSnapshot {
	return SessionSnapshot{
		Profile:   models.NoProfile(),
		Contracts: []models.Contract{},
		View:      deriveView("", models.NoProfile()),
	}
}

func deriveView(address string, profile models.Profile) SessionView {
	view := SessionView{ProfileImage: DefaultAvatar}

	var name, surname, fullName, image string
	switch profile.Kind {
	case models.ProfileStudent:
		view.IsStudent = true
		name, surname, image = profile.Student.Name, profile.Student.Surname, profile.Student.ProfileImage
		fullName = profile.Student.FullName()
	case models.ProfileInvestor:
		view.IsInvestor = true
		name, surname, image = profile.Investor.Name, profile.Investor.Surname, profile.Investor.ProfileImage
		fullName = profile.Investor.FullName()
	case models.ProfileNone:
	}

	view.HasProfile = view.IsStudent || view.IsInvestor
	view.IsAuthenticated = view.HasProfile
	if image != "" {
		view.ProfileImage = image
	}

	switch {
	case view.HasProfile:
		view.DisplayName = fullName
		view.Initials = strings.ToUpper(firstRune(name) + firstRune(surname))
	case address != "":
		view.DisplayName = shortAddress(address)
		view.Initials = strings.ToUpper(safeSlice(address, 2, 4))
	}
	if view.Initials == "" {
		view.Initials = "U"
	}

	return view
}

func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func firstRune(value string) string {
	for _, r := range value {
		return string(r)
	}
	return ""
}

func safeSlice(value string, start, end int) string {
	if start >= len(value) {
		return ""
	}
	if end > len(value) {
		end = len(value)
	}
	return value[start:end]
}
