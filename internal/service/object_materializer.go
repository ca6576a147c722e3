package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// FieldError reports a field that could not be decoded into its typed value.
type FieldError struct {
	Kind   models.EntityKind
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s field %q: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s field %q: %s (got %s)", e.Kind, e.Field, e.Reason, e.Value)
}

// ObjectMaterializer turns raw ledger objects into typed entities.
type ObjectMaterializer interface {
	Materialize(ctx context.Context, objectID string, kind models.EntityKind) (models.Entity, error)
	Student(ctx context.Context, objectID string) (*models.Student, error)
	Investor(ctx context.Context, objectID string) (*models.Investor, error)
	Contract(ctx context.Context, objectID string) (*models.Contract, error)
	Decode(data *sui.ObjectData, kind models.EntityKind) (models.Entity, error)
}

type objectMaterializer struct {
	ledger    LedgerReader
	packageID string
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewObjectMaterializer constructs the materializer for objects of packageID.
func NewObjectMaterializer(ledger LedgerReader, packageID string, logger zerolog.Logger) ObjectMaterializer {
	return &objectMaterializer{
		ledger:    ledger,
		packageID: packageID,
		logger:    logger.With().Str("component", "object_materializer").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/edudefi-go-api/internal/service/materializer"),
	}
}

// Materialize fetches objectID and decodes it as kind. A missing, deleted or mistyped object
// yields nil without error; so does a failed fetch, which is only logged.
func (m *objectMaterializer) Materialize(ctx context.Context, objectID string, kind models.EntityKind) (models.Entity, error) {
	spanCtx, span := m.tracer.Start(ctx, "materializer.materialize", trace.WithAttributes(
		attribute.String("object.id", objectID),
		attribute.String("object.kind", string(kind)),
	))
	defer span.End()

	resp, err := m.ledger.GetObject(spanCtx, objectID, sui.ObjectDataOptions{ShowType: true, ShowOwner: true, ShowContent: true})
	if err != nil {
		span.RecordError(err)
		m.logger.Warn().Err(err).Str("object_id", objectID).Str("kind", string(kind)).Msg("failed to fetch object")
		return nil, nil
	}
	if resp == nil || resp.Data == nil {
		return nil, nil
	}

	entity, err := m.Decode(resp.Data, kind)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return entity, nil
}

func (m *objectMaterializer) Student(ctx context.Context, objectID string) (*models.Student, error) {
	entity, err := m.Materialize(ctx, objectID, models.EntityStudent)
	if err != nil || entity == nil {
		return nil, err
	}
	student := entity.(models.Student)
	return &student, nil
}

func (m *objectMaterializer) Investor(ctx context.Context, objectID string) (*models.Investor, error) {
	entity, err := m.Materialize(ctx, objectID, models.EntityInvestor)
	if err != nil || entity == nil {
		return nil, err
	}
	investor := entity.(models.Investor)
	return &investor, nil
}

func (m *objectMaterializer) Contract(ctx context.Context, objectID string) (*models.Contract, error) {
	entity, err := m.Materialize(ctx, objectID, models.EntityContract)
	if err != nil || entity == nil {
		return nil, err
	}
	contract := entity.(models.Contract)
	return &contract, nil
}

// Decode converts already fetched object data. It returns nil, nil when the content is not a
// Move object of the expected type.
func (m *objectMaterializer) Decode(data *sui.ObjectData, kind models.EntityKind) (models.Entity, error) {
	if data == nil || !data.Content.IsMoveObject() {
		return nil, nil
	}
	if !matchesStructType(data.StructType(), m.packageID, kind) {
		return nil, nil
	}

	fields := gjson.ParseBytes(data.Content.Fields)
	d := fieldDecoder{kind: kind, fields: fields}

	switch kind {
	case models.EntityStudent:
		student := models.Student{
			ID:               d.objectID(data.ObjectID),
			Owner:            d.str("owner"),
			Name:             d.str("name"),
			Surname:          d.str("surname"),
			Age:              d.uint("age", false),
			CVHash:           d.str("cv_hash", "cv_url"),
			ProfileImage:     d.str("profile_image"),
			FundingRequested: d.uint("funding_requested", false),
			EquityPercentage: d.uint("equity_percentage", true),
			DurationMonths:   d.uint("duration_months", true),
			CreatedAt:        d.uint("created_at", false),
		}
		if student.Owner == "" {
			student.Owner = data.OwnerAddress()
		}
		d.checkEquity(student.EquityPercentage)
		d.checkDuration(student.DurationMonths)
		if d.err != nil {
			return nil, d.err
		}
		return student, nil

	case models.EntityInvestor:
		investor := models.Investor{
			ID:           d.objectID(data.ObjectID),
			Owner:        d.str("owner"),
			Name:         d.str("name"),
			Surname:      d.str("surname"),
			Age:          d.uint("age", false),
			ProfileImage: d.str("profile_image"),
			CreatedAt:    d.uint("created_at", false),
		}
		if investor.Owner == "" {
			investor.Owner = data.OwnerAddress()
		}
		if d.err != nil {
			return nil, d.err
		}
		return investor, nil

	case models.EntityContract:
		contract := models.Contract{
			ID:                   d.objectID(data.ObjectID),
			StudentAddress:       d.str("student_address", "student"),
			InvestorAddress:      d.str("investor_address", "investor"),
			PDFHash:              d.str("pdf_hash"),
			FundingAmount:        d.uint("funding_amount", true),
			ReleaseIntervalDays:  d.uint("release_interval_days", false),
			EquityPercentage:     d.uint("equity_percentage", true),
			DurationMonths:       d.uint("duration_months", true),
			Balance:              d.uint("balance", false),
			FundsReleased:        d.uint("funds_released", false),
			NextReleaseTime:      d.uint("next_release_time", false),
			StudentMonthlyIncome: d.uint("student_monthly_income", false),
			IsActive:             d.bool("is_active"),
			RewardPoolID:         d.optionalID("reward_pool_id"),
			HasTokensIssued:      d.bool("has_tokens_issued"),
		}
		d.checkEquity(contract.EquityPercentage)
		d.checkDuration(contract.DurationMonths)
		if d.err != nil {
			return nil, d.err
		}
		return contract, nil

	default:
		return nil, fmt.Errorf("unsupported entity kind %q", kind)
	}
}

// matchesStructType compares a Move type against the expected struct of kind. An empty
// packageID matches any package.
func matchesStructType(actual, packageID string, kind models.EntityKind) bool {
	expected := models.StructType("", kind)
	if expected == "" || !strings.HasSuffix(actual, expected) {
		return false
	}
	if packageID == "" {
		return true
	}
	return sui.NormalizeAddress(strings.TrimSuffix(actual, expected)) == sui.NormalizeAddress(packageID)
}

// fieldDecoder reads a Move field bag. The first failure is kept in err and later reads
// become no-ops so one decode reports one field.
type fieldDecoder struct {
	kind   models.EntityKind
	fields gjson.Result
	err    error
}

func (d *fieldDecoder) lookup(names ...string) gjson.Result {
	for _, name := range names {
		if value := d.fields.Get(name); value.Exists() && value.Type != gjson.Null {
			return value
		}
	}
	return gjson.Result{}
}

func (d *fieldDecoder) fail(field, value, reason string) {
	if d.err == nil {
		d.err = &FieldError{Kind: d.kind, Field: field, Value: value, Reason: reason}
	}
}

func (d *fieldDecoder) objectID(fallback string) string {
	if id := d.fields.Get("id.id").String(); id != "" {
		return id
	}
	return fallback
}

func (d *fieldDecoder) str(names ...string) string {
	value := d.lookup(names...)
	if value.Type == gjson.String {
		return value.Str
	}
	if value.Exists() {
		return value.Raw
	}
	return ""
}

func (d *fieldDecoder) bool(name string) bool {
	value := d.lookup(name)
	switch value.Type {
	case gjson.True:
		return true
	case gjson.String:
		return value.Str == "true"
	default:
		return false
	}
}

// uint decodes a u64 carried as a JSON number or numeric string. Balance fields may be nested
// as {"value": ...}.
func (d *fieldDecoder) uint(name string, required bool) uint64 {
	if d.err != nil {
		return 0
	}

	value := d.lookup(name)
	if value.IsObject() {
		value = value.Get("value")
	}

	var text string
	switch value.Type {
	case gjson.Number:
		text = value.Raw
	case gjson.String:
		text = strings.TrimSpace(value.Str)
	case gjson.Null:
		if required {
			d.fail(name, "", "required numeric value is missing")
		}
		return 0
	default:
		d.fail(name, value.Raw, "value is not numeric")
		return 0
	}

	number, err := decimal.NewFromString(text)
	if err != nil {
		d.fail(name, text, "value is not a finite number")
		return 0
	}
	if number.IsNegative() {
		d.fail(name, text, "value is negative")
		return 0
	}
	integer := number.Truncate(0)
	if !number.Equal(integer) || !integer.BigInt().IsUint64() {
		d.fail(name, text, "value is not a u64 integer")
		return 0
	}
	return integer.BigInt().Uint64()
}

func (d *fieldDecoder) optionalID(name string) *string {
	value := d.lookup(name)
	var id string
	switch {
	case value.Type == gjson.String:
		id = value.Str
	case value.IsObject():
		id = value.Get("vec.0").String()
		if id == "" {
			id = value.Get("fields.vec.0").String()
		}
	case value.IsArray():
		id = value.Get("0").String()
	}
	if id == "" {
		return nil
	}
	return &id
}

func (d *fieldDecoder) checkEquity(equity uint64) {
	if equity > 100 {
		d.fail("equity_percentage", fmt.Sprint(equity), "must be between 0 and 100")
	}
}

func (d *fieldDecoder) checkDuration(months uint64) {
	if d.err == nil && months == 0 {
		d.fail("duration_months", "0", "must be positive")
	}
}

// addressValues reads an address or a vector of addresses from a table value.
func addressValues(raw json.RawMessage) []string {
	value := gjson.GetBytes(raw, "value")
	switch {
	case value.Type == gjson.String:
		if value.Str == "" {
			return nil
		}
		return []string{value.Str}
	case value.IsArray():
		members := make([]string, 0, len(value.Array()))
		for _, item := range value.Array() {
			if item.Type == gjson.String && item.Str != "" {
				members = append(members, item.Str)
			}
		}
		return members
	default:
		return nil
	}
}
