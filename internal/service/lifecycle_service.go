package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/edudefi-go-api/internal/dto"
	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/internal/repository"
	"github.com/noah-isme/edudefi-go-api/internal/transaction"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

var (
	// ErrDemoSessionNotFound indicates the session does not exist for the calling wallet.
	ErrDemoSessionNotFound = errors.New("demo session not found")
	// ErrDemoSessionClosed indicates the session was completed or rejected.
	ErrDemoSessionClosed = errors.New("demo session is closed")
	// ErrDemoStepPrecondition indicates an object produced by an earlier step is missing.
	ErrDemoStepPrecondition = errors.New("demo step prerequisite missing")
	// ErrSignerUnavailable indicates no server-side signer is configured.
	ErrSignerUnavailable = errors.New("server-side signer unavailable")
)

// LifecycleService walks one wallet through create, accept, fund, pay and claim.
type LifecycleService interface {
	Start(ctx context.Context, wallet string, req dto.DemoSessionCreateRequest) (dto.DemoSessionResponse, error)
	Get(ctx context.Context, id, wallet string) (dto.DemoSessionResponse, error)
	Reset(ctx context.Context, id, wallet string) (dto.DemoSessionResponse, error)
	Prepare(ctx context.Context, id, wallet string, reject bool) (dto.PreparedTransactionResponse, error)
	Complete(ctx context.Context, id, wallet, digest string) (dto.DemoStepResponse, error)
	Reject(ctx context.Context, id, wallet, digest string) (dto.DemoStepResponse, error)
	Advance(ctx context.Context, id, wallet string) (dto.DemoStepResponse, error)
}

type lifecycleService struct {
	repo         repository.DemoSessionRepository
	builder      transaction.Builder
	registryID   string
	executor     TransactionExecutor
	recorder     TransactionRecorder
	materializer ObjectMaterializer
	signers      SignerProvider
	validate     *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewLifecycleService constructs the walkthrough service. signers may be nil, which disables
// Advance.
func NewLifecycleService(
	repo repository.DemoSessionRepository,
	settings LedgerSettings,
	executor TransactionExecutor,
	recorder TransactionRecorder,
	materializer ObjectMaterializer,
	signers SignerProvider,
	validate *validator.Validate,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleService{
		repo:         repo,
		builder:      transaction.NewBuilder(settings.PackageID),
		registryID:   settings.RegistryID,
		executor:     executor,
		recorder:     recorder,
		materializer: materializer,
		signers:      signers,
		validate:     validate,
		logger:       logger.With().Str("component", "lifecycle_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/edudefi-go-api/internal/service/lifecycle"),
	}
}

func (s *lifecycleService) Start(ctx context.Context, wallet string, req dto.DemoSessionCreateRequest) (dto.DemoSessionResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return dto.DemoSessionResponse{}, err
	}
	if !sui.IsValidAddress(req.StudentAddress) {
		return dto.DemoSessionResponse{}, fmt.Errorf("%w: student_address %q", transaction.ErrInvalidParams, req.StudentAddress)
	}
	for name, amount := range map[string]decimal.Decimal{"funding_amount": req.FundingAmount, "dividend_amount": req.DividendAmount} {
		if !amount.IsPositive() {
			return dto.DemoSessionResponse{}, fmt.Errorf("%w: %s must be positive", transaction.ErrInvalidParams, name)
		}
		if _, err := transaction.ToMist(amount); err != nil {
			return dto.DemoSessionResponse{}, err
		}
	}

	session := models.DemoSession{
		ID:             uuid.NewString(),
		WalletAddress:  sui.NormalizeAddress(wallet),
		Step:           models.StepCreate,
		Status:         models.DemoStatusActive,
		StudentAddress: sui.NormalizeAddress(req.StudentAddress),
		PDFHash:        req.PDFHash,
		FundingAmount:  req.FundingAmount.String(),
		DividendAmount: req.DividendAmount.String(),
		EquityPercent:  req.EquityPercentage,
		DurationMonths: req.DurationMonths,
	}
	if err := s.repo.Create(ctx, &session); err != nil {
		return dto.DemoSessionResponse{}, err
	}

	s.logger.Info().Str("session_id", session.ID).Str("wallet", session.WalletAddress).Msg("demo session started")
	return sessionResponse(session), nil
}

func (s *lifecycleService) Get(ctx context.Context, id, wallet string) (dto.DemoSessionResponse, error) {
	session, err := s.load(ctx, id, wallet)
	if err != nil {
		return dto.DemoSessionResponse{}, err
	}
	return sessionResponse(session), nil
}

// Reset rewinds the session to step 1 and forgets the objects created so far.
func (s *lifecycleService) Reset(ctx context.Context, id, wallet string) (dto.DemoSessionResponse, error) {
	session, err := s.load(ctx, id, wallet)
	if err != nil {
		return dto.DemoSessionResponse{}, err
	}

	session.Step = models.StepCreate
	session.Status = models.DemoStatusActive
	session.ContractID = ""
	session.RewardPoolID = ""
	session.LastDigest = ""
	session.LastError = ""
	if err := s.repo.Save(ctx, &session); err != nil {
		return dto.DemoSessionResponse{}, err
	}
	return sessionResponse(session), nil
}

// Prepare builds the payload of the current step, or the rejection of the proposed contract
// when reject is set.
func (s *lifecycleService) Prepare(ctx context.Context, id, wallet string, reject bool) (dto.PreparedTransactionResponse, error) {
	session, err := s.openSession(ctx, id, wallet)
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}

	var payload sui.Payload
	if reject {
		payload, err = s.rejectPayload(session)
	} else {
		payload, err = s.stepPayload(ctx, &session)
	}
	if err != nil {
		return dto.PreparedTransactionResponse{}, err
	}
	return dto.NewPreparedTransactionResponse(session.WalletAddress, payload), nil
}

// Complete confirms a browser-signed digest for the current step and advances on success.
func (s *lifecycleService) Complete(ctx context.Context, id, wallet, digest string) (dto.DemoStepResponse, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.complete", trace.WithAttributes(attribute.String("transaction.digest", digest)))
	defer span.End()

	session, err := s.openSession(ctx, id, wallet)
	if err != nil {
		return dto.DemoStepResponse{}, err
	}
	entry, err := transaction.StepFor(session.Step)
	if err != nil {
		return dto.DemoStepResponse{}, err
	}

	receipt, confirmErr := s.executor.Confirm(ctx, digest, s.targetFor(session.Step))
	receipt.Action = entry.Action
	return s.apply(ctx, &session, entry, receipt, confirmErr)
}

// Reject confirms the rejection of the proposed contract and closes the session.
func (s *lifecycleService) Reject(ctx context.Context, id, wallet, digest string) (dto.DemoStepResponse, error) {
	session, err := s.openSession(ctx, id, wallet)
	if err != nil {
		return dto.DemoStepResponse{}, err
	}
	if session.ContractID == "" {
		return dto.DemoStepResponse{}, fmt.Errorf("%w: no contract to reject", ErrDemoStepPrecondition)
	}

	receipt, confirmErr := s.executor.Confirm(ctx, digest, NoExtraction)
	receipt.Action = models.ActionRejectContract
	session.LastDigest = digest
	if confirmErr != nil {
		return s.fail(ctx, &session, receipt, confirmErr)
	}

	s.record(ctx, session, receipt)
	session.Status = models.DemoStatusRejected
	session.LastError = ""
	if err := s.repo.Save(ctx, &session); err != nil {
		return dto.DemoStepResponse{}, err
	}
	return dto.DemoStepResponse{Session: sessionResponse(session), Receipt: NewReceiptResponse(receipt)}, nil
}

// Advance signs the current step server-side and applies the outcome.
func (s *lifecycleService) Advance(ctx context.Context, id, wallet string) (dto.DemoStepResponse, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.advance")
	defer span.End()

	if s.signers == nil {
		return dto.DemoStepResponse{}, ErrSignerUnavailable
	}

	session, err := s.openSession(ctx, id, wallet)
	if err != nil {
		return dto.DemoStepResponse{}, err
	}
	entry, err := transaction.StepFor(session.Step)
	if err != nil {
		return dto.DemoStepResponse{}, err
	}
	payload, err := s.stepPayload(ctx, &session)
	if err != nil {
		return dto.DemoStepResponse{}, err
	}
	signer, err := s.signers.SignerFor(session.WalletAddress)
	if err != nil {
		return dto.DemoStepResponse{}, fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}

	span.SetAttributes(attribute.Int("lifecycle.step", session.Step), attribute.String("lifecycle.signer", string(entry.Signer)))
	receipt, execErr := s.executor.Execute(ctx, payload, signer, s.targetFor(session.Step))
	if errors.Is(execErr, ErrSubmissionFailed) {
		session.LastError = execErr.Error()
		if err := s.repo.Save(ctx, &session); err != nil {
			s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to save demo session")
		}
		return dto.DemoStepResponse{Session: sessionResponse(session)}, execErr
	}
	return s.apply(ctx, &session, entry, receipt, execErr)
}

func (s *lifecycleService) apply(ctx context.Context, session *models.DemoSession, entry transaction.LifecycleStep, receipt Receipt, confirmErr error) (dto.DemoStepResponse, error) {
	session.LastDigest = receipt.Digest
	if confirmErr != nil {
		return s.fail(ctx, session, receipt, confirmErr)
	}

	switch entry.Step {
	case models.StepCreate:
		session.ContractID = receipt.CreatedObjectID
	case models.StepFund:
		if receipt.CreatedObjectID != "" {
			session.RewardPoolID = receipt.CreatedObjectID
		}
	}

	s.record(ctx, *session, receipt)
	session.Step = entry.Next
	session.LastError = ""
	if session.Step >= models.StepComplete {
		session.Status = models.DemoStatusCompleted
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return dto.DemoStepResponse{}, err
	}

	s.logger.Info().Str("session_id", session.ID).Int("step", session.Step).Str("digest", receipt.Digest).Msg("demo step completed")
	return dto.DemoStepResponse{Session: sessionResponse(*session), Receipt: NewReceiptResponse(receipt)}, nil
}

// fail stores the failure on the session without advancing. Committed outcomes are recorded.
func (s *lifecycleService) fail(ctx context.Context, session *models.DemoSession, receipt Receipt, cause error) (dto.DemoStepResponse, error) {
	session.LastError = cause.Error()
	if !errors.Is(cause, ErrConfirmationFailed) {
		s.record(ctx, *session, receipt)
	}
	if err := s.repo.Save(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to save demo session")
	}
	return dto.DemoStepResponse{Session: sessionResponse(*session), Receipt: NewReceiptResponse(receipt)}, cause
}

func (s *lifecycleService) record(ctx context.Context, session models.DemoSession, receipt Receipt) {
	if s.recorder == nil || receipt.Digest == "" {
		return
	}
	metadata := map[string]interface{}{"demo_session_id": session.ID}
	if session.ContractID != "" {
		metadata["contract_id"] = session.ContractID
	}
	if err := s.recorder.Record(ctx, session.WalletAddress, receipt, metadata, session.StudentAddress); err != nil {
		s.logger.Error().Err(err).Str("digest", receipt.Digest).Msg("failed to record demo transaction")
	}
}

func (s *lifecycleService) stepPayload(ctx context.Context, session *models.DemoSession) (sui.Payload, error) {
	switch session.Step {
	case models.StepCreate:
		amount, err := decimal.NewFromString(session.FundingAmount)
		if err != nil {
			return sui.Payload{}, fmt.Errorf("%w: funding_amount %q", transaction.ErrInvalidParams, session.FundingAmount)
		}
		return s.builder.BuildCreateContract(transaction.CreateContractParams{
			StudentAddress:   session.StudentAddress,
			PDFHash:          session.PDFHash,
			FundingAmount:    amount,
			EquityPercentage: session.EquityPercent,
			DurationMonths:   session.DurationMonths,
		})
	case models.StepAccept:
		if session.ContractID == "" {
			return sui.Payload{}, fmt.Errorf("%w: contract id", ErrDemoStepPrecondition)
		}
		return s.builder.BuildAccept(transaction.AcceptParams{ContractID: session.ContractID})
	case models.StepFund:
		if session.ContractID == "" {
			return sui.Payload{}, fmt.Errorf("%w: contract id", ErrDemoStepPrecondition)
		}
		amount, err := decimal.NewFromString(session.FundingAmount)
		if err != nil {
			return sui.Payload{}, fmt.Errorf("%w: funding_amount %q", transaction.ErrInvalidParams, session.FundingAmount)
		}
		return s.builder.BuildFund(transaction.FundParams{ContractID: session.ContractID, FundingAmount: amount})
	case models.StepPayDividend:
		if err := s.ensureRewardPool(ctx, session); err != nil {
			return sui.Payload{}, err
		}
		amount, err := decimal.NewFromString(session.DividendAmount)
		if err != nil {
			return sui.Payload{}, fmt.Errorf("%w: dividend_amount %q", transaction.ErrInvalidParams, session.DividendAmount)
		}
		return s.builder.BuildPayDividend(transaction.PayDividendParams{
			ContractID:   session.ContractID,
			RewardPoolID: session.RewardPoolID,
			Amount:       amount,
		})
	case models.StepClaim:
		if err := s.ensureRewardPool(ctx, session); err != nil {
			return sui.Payload{}, err
		}
		return s.builder.BuildClaimDividend(transaction.ClaimDividendParams{RewardPoolID: session.RewardPoolID})
	default:
		return sui.Payload{}, fmt.Errorf("%w: step %d", ErrDemoSessionClosed, session.Step)
	}
}

func (s *lifecycleService) rejectPayload(session models.DemoSession) (sui.Payload, error) {
	if session.ContractID == "" {
		return sui.Payload{}, fmt.Errorf("%w: no contract to reject", ErrDemoStepPrecondition)
	}
	return s.builder.BuildReject(transaction.RejectParams{ContractID: session.ContractID, RegistryID: s.registryID})
}

// ensureRewardPool looks the pool up on the contract when funding did not reveal it.
func (s *lifecycleService) ensureRewardPool(ctx context.Context, session *models.DemoSession) error {
	if session.ContractID == "" {
		return fmt.Errorf("%w: contract id", ErrDemoStepPrecondition)
	}
	if session.RewardPoolID != "" {
		return nil
	}
	if s.materializer != nil {
		contract, err := s.materializer.Contract(ctx, session.ContractID)
		if err == nil && contract != nil && contract.RewardPoolID != nil && *contract.RewardPoolID != "" {
			session.RewardPoolID = *contract.RewardPoolID
			if saveErr := s.repo.Save(ctx, session); saveErr != nil {
				s.logger.Warn().Err(saveErr).Str("session_id", session.ID).Msg("failed to persist discovered reward pool")
			}
			return nil
		}
	}
	return fmt.Errorf("%w: reward pool id", ErrDemoStepPrecondition)
}

func (s *lifecycleService) targetFor(step int) ExtractionTarget {
	switch step {
	case models.StepCreate:
		return ExtractionTargetFor(models.ActionCreateContract, s.builder.PackageID())
	case models.StepFund:
		return ExtractionTargetFor(models.ActionFundContract, s.builder.PackageID())
	default:
		return NoExtraction
	}
}

func (s *lifecycleService) load(ctx context.Context, id, wallet string) (models.DemoSession, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DemoSession{}, ErrDemoSessionNotFound
		}
		return models.DemoSession{}, err
	}
	if session.WalletAddress != sui.NormalizeAddress(wallet) {
		return models.DemoSession{}, ErrDemoSessionNotFound
	}
	return session, nil
}

func (s *lifecycleService) openSession(ctx context.Context, id, wallet string) (models.DemoSession, error) {
	session, err := s.load(ctx, id, wallet)
	if err != nil {
		return models.DemoSession{}, err
	}
	if session.IsTerminal() {
		return models.DemoSession{}, ErrDemoSessionClosed
	}
	return session, nil
}

func sessionResponse(session models.DemoSession) dto.DemoSessionResponse {
	var response dto.DemoSessionResponse
	if entry, err := transaction.StepFor(session.Step); err == nil && !session.IsTerminal() {
		response = dto.NewDemoSessionResponse(session, entry.Action, string(entry.Signer))
	} else {
		response = dto.NewDemoSessionResponse(session, "", "")
	}
	response.Stage = string(transaction.StageAt(session.Step, session.Status))
	return response
}

type remoteSignerProvider struct {
	signer *sui.RemoteSigner
}

// NewRemoteSignerProvider exposes a wallet bridge as a SignerProvider.
func NewRemoteSignerProvider(signer *sui.RemoteSigner) SignerProvider {
	return &remoteSignerProvider{signer: signer}
}

func (p *remoteSignerProvider) SignerFor(sender string) (Signer, error) {
	if p.signer == nil {
		return nil, ErrSignerUnavailable
	}
	return p.signer.ForSender(sender), nil
}
