package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/edudefi-go-api/internal/models"
)

// DemoSessionCreateRequest starts a lifecycle walkthrough. Amounts are in whole SUI.
type DemoSessionCreateRequest struct {
	StudentAddress   string          `json:"student_address" validate:"required"`
	PDFHash          string          `json:"pdf_hash" validate:"required,max=255"`
	FundingAmount    decimal.Decimal `json:"funding_amount"`
	DividendAmount   decimal.Decimal `json:"dividend_amount"`
	EquityPercentage uint64          `json:"equity_percentage" validate:"lte=100"`
	DurationMonths   uint64          `json:"duration_months" validate:"required,gt=0"`
}

// DemoDigestRequest reports the digest of a step signed by the browser wallet.
type DemoDigestRequest struct {
	Digest string `json:"digest" validate:"required,max=64"`
}

// DemoSessionResponse is the public view of a walkthrough.
type DemoSessionResponse struct {
	ID             string    `json:"id"`
	WalletAddress  string    `json:"wallet_address"`
	Step           int       `json:"step"`
	Status         string    `json:"status"`
	Stage          string    `json:"stage,omitempty"`
	NextAction     string    `json:"next_action,omitempty"`
	ExpectedSigner string    `json:"expected_signer,omitempty"`
	StudentAddress string    `json:"student_address"`
	PDFHash        string    `json:"pdf_hash"`
	ContractID     string    `json:"contract_id,omitempty"`
	RewardPoolID   string    `json:"reward_pool_id,omitempty"`
	FundingAmount  string    `json:"funding_amount"`
	DividendAmount string    `json:"dividend_amount"`
	LastDigest     string    `json:"last_digest,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DemoStepResponse is returned after a step is confirmed.
type DemoStepResponse struct {
	Session DemoSessionResponse `json:"session"`
	Receipt ReceiptResponse     `json:"receipt"`
}

// NewDemoSessionResponse maps the model; nextAction and signer describe the current step.
func NewDemoSessionResponse(model models.DemoSession, nextAction, signer string) DemoSessionResponse {
	return DemoSessionResponse{
		ID:             model.ID,
		WalletAddress:  model.WalletAddress,
		Step:           model.Step,
		Status:         model.Status,
		NextAction:     nextAction,
		ExpectedSigner: signer,
		StudentAddress: model.StudentAddress,
		PDFHash:        model.PDFHash,
		ContractID:     model.ContractID,
		RewardPoolID:   model.RewardPoolID,
		FundingAmount:  model.FundingAmount,
		DividendAmount: model.DividendAmount,
		LastDigest:     model.LastDigest,
		LastError:      model.LastError,
		UpdatedAt:      model.UpdatedAt,
	}
}
