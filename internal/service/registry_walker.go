package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/edudefi-go-api/internal/observability"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// ErrCollectionUnavailable is returned when a registry table page cannot be read.
var ErrCollectionUnavailable = errors.New("registry collection unavailable")

const defaultPageLimit = 50

// RegistryEntry is one key of a registry table with the addresses stored under it.
type RegistryEntry struct {
	Key     string   `json:"key"`
	Members []string `json:"members"`
}

// RegistryWalker enumerates the tables of the shared registry object.
type RegistryWalker interface {
	ListMembers(ctx context.Context, registryID, collection string) ([]string, error)
	Entries(ctx context.Context, registryID, collection string) ([]RegistryEntry, error)
	MembersForKey(ctx context.Context, registryID, collection, key string) ([]string, error)
}

// RegistryWalkerConfig tunes paging and secondary fetch concurrency.
type RegistryWalkerConfig struct {
	PageLimit int
	Fanout    int
}

type registryWalker struct {
	ledger    LedgerReader
	pageLimit int
	fanout    int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRegistryWalker constructs a walker. A fanout of 1 resolves table values sequentially.
func NewRegistryWalker(ledger LedgerReader, cfg RegistryWalkerConfig, logger zerolog.Logger) RegistryWalker {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.Fanout <= 0 {
		cfg.Fanout = 1
	}

	return &registryWalker{
		ledger:    ledger,
		pageLimit: cfg.PageLimit,
		fanout:    cfg.Fanout,
		logger:    logger.With().Str("component", "registry_walker").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/edudefi-go-api/internal/service/registry"),
	}
}

// ListMembers returns every address stored in collection, flattened in discovery order.
func (w *registryWalker) ListMembers(ctx context.Context, registryID, collection string) ([]string, error) {
	entries, err := w.Entries(ctx, registryID, collection)
	if err != nil {
		return nil, err
	}

	members := make([]string, 0, len(entries))
	for _, entry := range entries {
		members = append(members, entry.Members...)
	}
	return members, nil
}

// Entries walks every page of collection. A missing registry or collection is empty.
func (w *registryWalker) Entries(ctx context.Context, registryID, collection string) ([]RegistryEntry, error) {
	spanCtx, span := w.tracer.Start(ctx, "registry.entries", trace.WithAttributes(
		attribute.String("registry.id", registryID),
		attribute.String("registry.collection", collection),
	))
	defer span.End()

	tableID, err := w.tableID(spanCtx, registryID, collection)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if tableID == "" {
		return []RegistryEntry{}, nil
	}

	entries := make([]RegistryEntry, 0)
	memberCount := 0
	var cursor *string
	for {
		page, err := w.ledger.GetDynamicFields(spanCtx, tableID, cursor, w.pageLimit)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: %s page: %v", ErrCollectionUnavailable, collection, err)
		}

		resolved, err := w.resolvePage(spanCtx, tableID, collection, page.Data)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		for _, entry := range resolved {
			memberCount += len(entry.Members)
		}
		entries = append(entries, resolved...)

		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	observability.RegistryMembers().WithLabelValues(collection).Add(float64(memberCount))
	w.logger.Debug().Str("collection", collection).Int("entries", len(entries)).Int("members", memberCount).Msg("registry walk finished")

	return entries, nil
}

// MembersForKey reads the value stored under key directly, without walking the table.
func (w *registryWalker) MembersForKey(ctx context.Context, registryID, collection, key string) ([]string, error) {
	if key == "" {
		return []string{}, nil
	}

	tableID, err := w.tableID(ctx, registryID, collection)
	if err != nil {
		return nil, err
	}
	if tableID == "" {
		return []string{}, nil
	}

	name, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}

	resp, err := w.ledger.GetDynamicFieldObject(ctx, tableID, sui.DynamicFieldName{Type: "address", Value: name})
	if err != nil {
		if sui.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %s[%s]: %v", ErrCollectionUnavailable, collection, key, err)
	}
	if resp == nil || resp.Data == nil || !resp.Data.Content.IsMoveObject() {
		return []string{}, nil
	}

	members := addressValues(resp.Data.Content.Fields)
	if members == nil {
		members = []string{}
	}
	return members, nil
}

// tableID returns the backing table of collection, or "" when the registry or collection is
// absent.
func (w *registryWalker) tableID(ctx context.Context, registryID, collection string) (string, error) {
	if registryID == "" {
		return "", nil
	}

	resp, err := w.ledger.GetObject(ctx, registryID, sui.ObjectDataOptions{ShowContent: true})
	if err != nil {
		if sui.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: registry %s: %v", ErrCollectionUnavailable, registryID, err)
	}
	if resp == nil || resp.Data == nil || !resp.Data.Content.IsMoveObject() {
		w.logger.Warn().Str("registry_id", registryID).Msg("registry object not found")
		return "", nil
	}

	return gjson.GetBytes(resp.Data.Content.Fields, collection+".fields.id.id").String(), nil
}

func (w *registryWalker) resolvePage(ctx context.Context, tableID, collection string, fields []sui.DynamicFieldInfo) ([]RegistryEntry, error) {
	results := make([]RegistryEntry, len(fields))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(w.fanout)

	for i, field := range fields {
		group.Go(func() error {
			members, err := w.fieldMembers(groupCtx, tableID, field)
			if err != nil {
				return fmt.Errorf("%w: %s entry %s: %v", ErrCollectionUnavailable, collection, field.NameString(), err)
			}
			results[i] = RegistryEntry{Key: field.NameString(), Members: members}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fieldMembers resolves the value of one table entry. Object fields carry the member id
// inline; plain fields need a secondary fetch.
func (w *registryWalker) fieldMembers(ctx context.Context, tableID string, field sui.DynamicFieldInfo) ([]string, error) {
	if field.IsObjectField() {
		return []string{field.ObjectID}, nil
	}

	resp, err := w.ledger.GetDynamicFieldObject(ctx, tableID, field.Name)
	if err != nil {
		if sui.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if resp == nil || resp.Data == nil || !resp.Data.Content.IsMoveObject() {
		return nil, nil
	}
	return addressValues(resp.Data.Content.Fields), nil
}
