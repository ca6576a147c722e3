package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edudefi-go-api/internal/observability"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

var (
	// ErrSubmissionFailed is returned when signing or submission fails. The ledger never saw the
	// transaction.
	ErrSubmissionFailed = errors.New("transaction submission failed")
	// ErrConfirmationFailed is matched by ConfirmationError. The transaction may be committed;
	// callers re-poll with Confirm and must not resubmit.
	ErrConfirmationFailed = errors.New("transaction confirmation failed")
	// ErrExpectedObjectNotFound is returned with a receipt when the transaction succeeded but no
	// created object matched the extraction target.
	ErrExpectedObjectNotFound = errors.New("expected object not found in transaction")
	// ErrTransactionAborted is returned with a receipt when execution failed on-chain.
	ErrTransactionAborted = errors.New("transaction aborted on-chain")
)

// ConfirmationError carries the digest of a submitted transaction whose confirmation could not
// be observed.
type ConfirmationError struct {
	Digest string
	Err    error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("%s: digest %s: %v", ErrConfirmationFailed, e.Digest, e.Err)
}

// Unwrap returns the cause.
func (e *ConfirmationError) Unwrap() error { return e.Err }

// Is matches ErrConfirmationFailed.
func (e *ConfirmationError) Is(target error) bool { return target == ErrConfirmationFailed }

// Extraction rule names, in evaluation order.
const (
	RuleTypeMarker   = "type_marker"
	RulePackage      = "package"
	RuleFirstCreated = "first_created"
)

type extractionRule struct {
	name  string
	match func(change sui.ObjectChange, target ExtractionTarget) bool
}

// extractionRules is evaluated top to bottom over created objects; the first rule with a match
// wins. Append new rules at the end.
var extractionRules = []extractionRule{
	{
		name: RuleTypeMarker,
		match: func(change sui.ObjectChange, target ExtractionTarget) bool {
			return target.Marker != "" && strings.Contains(change.ObjectType, target.Marker)
		},
	},
	{
		name: RulePackage,
		match: func(change sui.ObjectChange, target ExtractionTarget) bool {
			return target.PackageID != "" && typePackage(change.ObjectType) == sui.NormalizeAddress(target.PackageID)
		},
	},
	{
		name: RuleFirstCreated,
		match: func(sui.ObjectChange, ExtractionTarget) bool {
			return true
		},
	},
}

// ExtractionTarget describes the created object a transaction is expected to produce. Rules
// limits evaluation to a prefix of the rule table; zero disables extraction. Optional targets
// report a miss without ErrExpectedObjectNotFound.
type ExtractionTarget struct {
	Marker    string
	PackageID string
	Rules     int
	Optional  bool
}

// NoExtraction is the target of transactions that create nothing of interest.
var NoExtraction = ExtractionTarget{}

// Receipt is the confirmed outcome of a transaction.
type Receipt struct {
	Digest          string             `json:"digest"`
	Action          string             `json:"action,omitempty"`
	Status          string             `json:"status"`
	Error           string             `json:"error,omitempty"`
	CreatedObjectID string             `json:"created_object_id,omitempty"`
	MatchedRule     string             `json:"matched_rule,omitempty"`
	ObjectChanges   []sui.ObjectChange `json:"object_changes"`
	Events          []sui.Event        `json:"events"`
	Checkpoint      string             `json:"checkpoint,omitempty"`
}

// TransactionExecutor submits payloads and confirms them. It keeps no state between calls
// and never retries on its own.
type TransactionExecutor interface {
	Execute(ctx context.Context, payload sui.Payload, signer Signer, target ExtractionTarget) (Receipt, error)
	Confirm(ctx context.Context, digest string, target ExtractionTarget) (Receipt, error)
}

// ExecutorConfig tunes confirmation polling.
type ExecutorConfig struct {
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

type transactionExecutor struct {
	ledger         LedgerReader
	pollInterval   time.Duration
	confirmTimeout time.Duration
	logger         zerolog.Logger
	tracer         trace.Tracer
}

// NewTransactionExecutor constructs the execution coordinator.
func NewTransactionExecutor(ledger LedgerReader, cfg ExecutorConfig, logger zerolog.Logger) TransactionExecutor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = sui.DefaultPollInterval
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = time.Minute
	}

	return &transactionExecutor{
		ledger:         ledger,
		pollInterval:   cfg.PollInterval,
		confirmTimeout: cfg.ConfirmTimeout,
		logger:         logger.With().Str("component", "transaction_executor").Logger(),
		tracer:         otel.Tracer("github.com/noah-isme/edudefi-go-api/internal/service/executor"),
	}
}

// Execute signs and submits payload, then confirms it. Waiting on the signer is bounded only by ctx.
func (e *transactionExecutor) Execute(ctx context.Context, payload sui.Payload, signer Signer, target ExtractionTarget) (Receipt, error) {
	spanCtx, span := e.tracer.Start(ctx, "transactions.execute", trace.WithAttributes(
		attribute.String("transaction.action", payload.Action),
		attribute.String("transaction.target", payload.Target()),
	))
	defer span.End()

	if signer == nil {
		return Receipt{}, fmt.Errorf("%w: no signer available", ErrSubmissionFailed)
	}

	result, err := signer.SignAndSubmit(spanCtx, payload)
	if err != nil {
		span.RecordError(err)
		observability.Transactions().WithLabelValues(payload.Action, "submission_failed").Inc()
		e.logger.Warn().Err(err).Str("action", payload.Action).Msg("transaction submission failed")
		return Receipt{}, fmt.Errorf("%w: %s", ErrSubmissionFailed, err.Error())
	}
	if result.Digest == "" {
		observability.Transactions().WithLabelValues(payload.Action, "submission_failed").Inc()
		return Receipt{}, fmt.Errorf("%w: signer returned no digest", ErrSubmissionFailed)
	}

	span.SetAttributes(attribute.String("transaction.digest", result.Digest))
	receipt, err := e.confirm(spanCtx, result.Digest, target)
	receipt.Action = payload.Action
	e.record(payload.Action, err)
	return receipt, err
}

// Confirm waits for digest and extracts the target object. Safe to call repeatedly.
func (e *transactionExecutor) Confirm(ctx context.Context, digest string, target ExtractionTarget) (Receipt, error) {
	spanCtx, span := e.tracer.Start(ctx, "transactions.confirm", trace.WithAttributes(
		attribute.String("transaction.digest", digest),
	))
	defer span.End()

	receipt, err := e.confirm(spanCtx, digest, target)
	e.record("confirm", err)
	return receipt, err
}

func (e *transactionExecutor) confirm(ctx context.Context, digest string, target ExtractionTarget) (Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	opts := sui.TransactionBlockResponseOptions{ShowEffects: true, ShowEvents: true, ShowObjectChanges: true}
	resp, err := e.ledger.WaitForTransaction(waitCtx, digest, opts, e.pollInterval)
	if err != nil {
		e.logger.Warn().Err(err).Str("digest", digest).Msg("transaction confirmation failed")
		return Receipt{Digest: digest}, &ConfirmationError{Digest: digest, Err: err}
	}

	receipt := Receipt{
		Digest:        digest,
		Status:        sui.ExecutionSuccess,
		ObjectChanges: resp.ObjectChanges,
		Events:        resp.Events,
		Checkpoint:    resp.Checkpoint,
	}
	if receipt.ObjectChanges == nil {
		receipt.ObjectChanges = []sui.ObjectChange{}
	}
	if receipt.Events == nil {
		receipt.Events = []sui.Event{}
	}
	if resp.Effects != nil && resp.Effects.Status.Status != "" {
		receipt.Status = resp.Effects.Status.Status
		receipt.Error = resp.Effects.Status.Error
	}

	if receipt.Status != sui.ExecutionSuccess {
		return receipt, fmt.Errorf("%w: %s", ErrTransactionAborted, receipt.Error)
	}

	if target.Rules <= 0 {
		return receipt, nil
	}

	objectID, rule := ExtractCreatedObject(receipt.ObjectChanges, target)
	if objectID == "" {
		observability.ObjectExtractions().WithLabelValues("none").Inc()
		if target.Optional {
			e.logger.Info().Str("digest", digest).Str("marker", target.Marker).Msg("optional object not found, continuing without it")
			return receipt, nil
		}
		return receipt, fmt.Errorf("%w: %s in %s", ErrExpectedObjectNotFound, target.Marker, digest)
	}

	observability.ObjectExtractions().WithLabelValues(rule).Inc()
	receipt.CreatedObjectID = objectID
	receipt.MatchedRule = rule
	return receipt, nil
}

func (e *transactionExecutor) record(action string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrConfirmationFailed):
		outcome = "confirmation_failed"
	case errors.Is(err, ErrTransactionAborted):
		outcome = "aborted"
	case errors.Is(err, ErrExpectedObjectNotFound):
		outcome = "object_not_found"
	default:
		outcome = "error"
	}
	observability.Transactions().WithLabelValues(action, outcome).Inc()
}

// ExtractCreatedObject applies the first target.Rules rules of the extraction table to the
// created objects in changes and returns the first match with the rule that produced it.
func ExtractCreatedObject(changes []sui.ObjectChange, target ExtractionTarget) (string, string) {
	limit := target.Rules
	if limit > len(extractionRules) {
		limit = len(extractionRules)
	}

	for _, rule := range extractionRules[:max(limit, 0)] {
		for _, change := range changes {
			if change.IsCreated() && rule.match(change, target) {
				return change.ObjectID, rule.name
			}
		}
	}
	return "", ""
}

// typePackage returns the normalized package address of a fully qualified Move type.
func typePackage(objectType string) string {
	pkg, _, found := strings.Cut(objectType, "::")
	if !found {
		return ""
	}
	return sui.NormalizeAddress(pkg)
}
