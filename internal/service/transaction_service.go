package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/edudefi-go-api/internal/dto"
	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/internal/repository"
	"github.com/noah-isme/edudefi-go-api/internal/transaction"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// ErrContractDocumentMissing indicates a contract proposal carried neither a hash nor a document.
var ErrContractDocumentMissing = errors.New("contract requires pdf_hash or an uploaded document")

// ExtractionTargetFor returns the created object the given action is expected to produce.
func ExtractionTargetFor(action, packageID string) ExtractionTarget {
	switch action {
	case models.ActionCreateContract:
		return ExtractionTarget{Marker: "::Contract", PackageID: packageID, Rules: 3}
	case models.ActionFundContract:
		return ExtractionTarget{Marker: "::RewardPool", PackageID: packageID, Rules: 2, Optional: true}
	case models.ActionCreateStudentProfile:
		return ExtractionTarget{Marker: "::Student", PackageID: packageID, Rules: 2, Optional: true}
	case models.ActionCreateInvestorProfile:
		return ExtractionTarget{Marker: "::Investor", PackageID: packageID, Rules: 2, Optional: true}
	default:
		return NoExtraction
	}
}

// TransactionRecorder persists confirmed receipts and announces them.
type TransactionRecorder interface {
	Record(ctx context.Context, sender string, receipt Receipt, metadata map[string]interface{}, addresses ...string) error
}

type transactionRecorder struct {
	repo   repository.TransactionRecordRepository
	bus    TransactionEventBus
	logger zerolog.Logger
}

// NewTransactionRecorder stores receipts in repo and publishes them on bus. bus may be nil.
func NewTransactionRecorder(repo repository.TransactionRecordRepository, bus TransactionEventBus, logger zerolog.Logger) TransactionRecorder {
	return &transactionRecorder{
		repo:   repo,
		bus:    bus,
		logger: logger.With().Str("component", "transaction_recorder").Logger(),
	}
}

func (r *transactionRecorder) Record(ctx context.Context, sender string, receipt Receipt, metadata map[string]interface{}, addresses ...string) error {
	record := models.TransactionRecord{
		Digest:          receipt.Digest,
		Action:          receipt.Action,
		Sender:          sui.NormalizeAddress(sender),
		CreatedObjectID: receipt.CreatedObjectID,
		MatchedRule:     receipt.MatchedRule,
		Status:          receipt.Status,
	}
	if len(metadata) > 0 {
		record.Metadata = datatypes.JSONMap(metadata)
	}
	if err := r.repo.Upsert(ctx, &record); err != nil {
		return err
	}

	if r.bus == nil || receipt.Status != sui.ExecutionSuccess {
		return nil
	}

	event := TransactionEvent{
		Digest:          receipt.Digest,
		Action:          receipt.Action,
		Addresses:       uniqueAddresses(append([]string{sender}, addresses...)),
		CreatedObjectID: receipt.CreatedObjectID,
		SentAt:          time.Now().UTC(),
	}
	if err := r.bus.Publish(ctx, event); err != nil {
		r.logger.Warn().Err(err).Str("digest", receipt.Digest).Msg("failed to publish transaction event")
	}
	return nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	result := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if strings.TrimSpace(address) == "" {
			continue
		}
		normalized := sui.NormalizeAddress(address)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

// TransactionService prepares unsigned payloads for browser wallets and confirms the digests
// they report back.
type TransactionService interface {
	PrepareStudentProfile(ctx context.Context, sender string, req dto.StudentProfileRequest) (dto.PreparedTransactionResponse, error)
	PrepareInvestorProfile(ctx context.Context, sender string, req dto.InvestorProfileRequest) (dto.PreparedTransactionResponse, error)
	PrepareContract(ctx context.Context, sender string, req dto.CreateContractRequest, document *multipart.FileHeader) (dto.PreparedTransactionResponse, error)
	PrepareAccept(ctx context.Context, sender, contractID string) (dto.PreparedTransactionResponse, error)
	PrepareReject(ctx context.Context, sender, contractID string) (dto.PreparedTransactionResponse, error)
	PrepareFund(ctx context.Context, sender, contractID string, req dto.FundContractRequest) (dto.PreparedTransactionResponse, error)
	PreparePayDividend(ctx context.Context, sender string, req dto.PayDividendRequest) (dto.PreparedTransactionResponse, error)
	PrepareClaimDividend(ctx context.Context, sender string, req dto.ClaimDividendRequest) (dto.PreparedTransactionResponse, error)
	Confirm(ctx context.Context, sender string, req dto.ConfirmTransactionRequest) (dto.ReceiptResponse, error)
}

type transactionService struct {
	builder      transaction.Builder
	registryID   string
	executor     TransactionExecutor
	recorder     TransactionRecorder
	materializer ObjectMaterializer
	documents    DocumentService
	validate     *validator.Validate
	policy       *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewTransactionService wires the payload builders to the executor. documents may be nil, in
// which case contract proposals must carry a pdf_hash.
func NewTransactionService(
	settings LedgerSettings,
	executor TransactionExecutor,
	recorder TransactionRecorder,
	materializer ObjectMaterializer,
	documents DocumentService,
	validate *validator.Validate,
	logger zerolog.Logger,
) TransactionService {
	return &transactionService{
		builder:      transaction.NewBuilder(settings.PackageID),
		registryID:   settings.RegistryID,
		executor:     executor,
		recorder:     recorder,
		materializer: materializer,
		documents:    documents,
		validate:     validate,
		policy:       bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "transaction_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/edudefi-go-api/internal/service/transaction"),
	}
}

func (s *transactionService) PrepareStudentProfile(ctx context.Context, sender string, req dto.StudentProfileRequest) (dto.PreparedTransactionResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return dto.PreparedTransactionResponse{}, err
	}

	payload, err := s.builder.BuildCreateStudentProfile(transaction.CreateStudentProfileParams{
		Name:             s.clean(req.Name),
		Surname:          s.clean(req.Surname),
		Age:              req.Age,
		CVHash:           s.clean(req.CVHash),
		ProfileImage:     s.clean(req.ProfileImage),
		FundingRequested: req.FundingRequested,
		EquityPercentage: req.EquityPercentage,
		DurationMonths:   req.DurationMonths,
		RegistryID:       s.registryID,
	})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(sender, payload), nil
}

func (s *transactionService) PrepareInvestorProfile(ctx context.Context, sender string, req dto.InvestorProfileRequest) (dto.PreparedTransactionResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return dto.PreparedTransactionResponse{}, err
	}

	payload, err := s.builder.BuildCreateInvestorProfile(transaction.CreateInvestorProfileParams{
		Name:         s.clean(req.Name),
		Surname:      s.clean(req.Surname),
		Age:          req.Age,
		ProfileImage: s.clean(req.ProfileImage),
		RegistryID:   s.registryID,
	})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(sender, payload), nil
}

func (s *transactionService) PrepareContract(ctx context.Context, sender string, req dto.CreateContractRequest, document *multipart.FileHeader) (dto.PreparedTransactionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "transactions.prepare_contract")
	defer span.End()

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return dto.PreparedTransactionResponse{}, err
	}

	var stored *dto.Document
	pdfHash := strings.TrimSpace(req.PDFHash)
	if document != nil && s.documents != nil {
		doc, err := s.documents.Upload(ctx, document, sender)
		if err != nil {
			span.RecordError(err)
			return dto.PreparedTransactionResponse{}, err
		}
		stored = &doc
		pdfHash = doc.BlobID
		span.SetAttributes(attribute.String("contract.blob_id", doc.BlobID))
	}
	if pdfHash == "" {
		return dto.PreparedTransactionResponse{}, ErrContractDocumentMissing
	}

	payload, err := s.builder.BuildCreateContract(transaction.CreateContractParams{
		StudentAddress:      req.StudentAddress,
		PDFHash:             pdfHash,
		FundingAmount:       req.FundingAmount,
		ReleaseIntervalDays: req.ReleaseIntervalDays,
		EquityPercentage:    req.EquityPercentage,
		DurationMonths:      req.DurationMonths,
	})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}

	response := dto.NewPreparedTransactionResponse(sender, payload)
	response.Document = stored
	return response, nil
}

func (s *transactionService) PrepareAccept(_ context.Context, sender, contractID string) (dto.PreparedTransactionResponse, error) {
	payload, err := s.builder.BuildAccept(transaction.AcceptParams{ContractID: contractID})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(sender, payload), nil
}

func (s *transactionService) PrepareReject(_ context.Context, sender, contractID string) (dto.PreparedTransactionResponse, error) {
	payload, err := s.builder.BuildReject(transaction.RejectParams{ContractID: contractID, RegistryID: s.registryID})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(sender, payload), nil
}

func (s *transactionService) PrepareFund(_ context.Context, sender, contractID string, req dto.FundContractRequest) (dto.PreparedTransactionResponse, error) {
	payload, err := s.builder.BuildFund(transaction.FundParams{ContractID: contractID, FundingAmount: req.FundingAmount})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(sender, payload), nil
}

func (s *transactionService) PreparePayDividend(ctx context.Context, sender string, req dto.PayDividendRequest) (dto.PreparedTransactionResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	payload, err := s.builder.BuildPayDividend(transaction.PayDividendParams{
		ContractID:   req.ContractID,
		RewardPoolID: req.RewardPoolID,
		Amount:       req.Amount,
	})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(sender, payload), nil
}

func (s *transactionService) PrepareClaimDividend(ctx context.Context, sender string, req dto.ClaimDividendRequest) (dto.PreparedTransactionResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	payload, err := s.builder.BuildClaimDividend(transaction.ClaimDividendParams{
		RewardPoolID: req.RewardPoolID,
		PaymentIndex: req.PaymentIndex,
	})
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(sender, payload), nil
}

// Confirm waits for a browser-submitted digest. Committed outcomes are recorded even when the
// transaction aborted or the expected object is missing; confirmation failures are not.
func (s *transactionService) Confirm(ctx context.Context, sender string, req dto.ConfirmTransactionRequest) (dto.ReceiptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "transactions.confirm_reported", trace.WithAttributes(
		attribute.String("transaction.action", req.Action),
		attribute.String("transaction.digest", req.Digest),
	))
	defer span.End()

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return dto.ReceiptResponse{}, err
	}

	receipt, err := s.executor.Confirm(ctx, req.Digest, ExtractionTargetFor(req.Action, s.builder.PackageID()))
	receipt.Action = req.Action
	if err != nil && errors.Is(err, ErrConfirmationFailed) {
		span.RecordError(err)
		return NewReceiptResponse(receipt), err
	}

	contractID := req.ContractID
	if req.Action == models.ActionCreateContract && receipt.CreatedObjectID != "" {
		contractID = receipt.CreatedObjectID
	}

	metadata := map[string]interface{}{}
	if contractID != "" {
		metadata["contract_id"] = contractID
	}
	if receipt.Error != "" {
		metadata["error"] = receipt.Error
	}

	addresses := s.contractParties(ctx, contractID)
	if recordErr := s.recorder.Record(ctx, sender, receipt, metadata, addresses...); recordErr != nil {
		s.logger.Error().Err(recordErr).Str("digest", receipt.Digest).Msg("failed to record transaction")
		if err == nil {
			err = recordErr
		}
	}

	if err != nil {
		span.RecordError(err)
	}
	return NewReceiptResponse(receipt), err
}

func (s *transactionService) contractParties(ctx context.Context, contractID string) []string {
	if contractID == "" || s.materializer == nil {
		return nil
	}
	contract, err := s.materializer.Contract(ctx, contractID)
	if err != nil || contract == nil {
		return nil
	}
	return []string{contract.StudentAddress, contract.InvestorAddress}
}

func (s *transactionService) clean(value string) string {
	return strings.TrimSpace(s.policy.Sanitize(value))
}

// NewReceiptResponse maps a receipt for transport.
func NewReceiptResponse(receipt Receipt) dto.ReceiptResponse {
	changes := receipt.ObjectChanges
	if changes == nil {
		changes = []sui.ObjectChange{}
	}
	return dto.ReceiptResponse{
		Digest:          receipt.Digest,
		Action:          receipt.Action,
		Status:          receipt.Status,
		Error:           receipt.Error,
		CreatedObjectID: receipt.CreatedObjectID,
		MatchedRule:     receipt.MatchedRule,
		ObjectChanges:   changes,
	}
}
