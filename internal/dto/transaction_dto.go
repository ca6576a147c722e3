package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/edudefi-go-api/internal/transaction"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// StudentProfileRequest registers the caller as a student. FundingRequested is in whole SUI.
type StudentProfileRequest struct {
	Name             string `json:"name" validate:"required,max=64"`
	Surname          string `json:"surname" validate:"required,max=64"`
	Age              uint64 `json:"age" validate:"required,gte=16,lte=120"`
	CVHash           string `json:"cv_hash" validate:"required,max=255"`
	ProfileImage     string `json:"profile_image" validate:"omitempty,max=1024"`
	FundingRequested uint64 `json:"funding_requested" validate:"gte=0"`
	EquityPercentage uint64 `json:"equity_percentage" validate:"lte=100"`
	DurationMonths   uint64 `json:"duration_months" validate:"required,gt=0,lte=240"`
}

// InvestorProfileRequest registers the caller as an investor.
type InvestorProfileRequest struct {
	Name         string `json:"name" validate:"required,max=64"`
	Surname      string `json:"surname" validate:"required,max=64"`
	Age          uint64 `json:"age" validate:"required,gte=18,lte=120"`
	ProfileImage string `json:"profile_image" validate:"omitempty,max=1024"`
}

// CreateContractRequest proposes a contract. Amounts are in whole SUI. PDFHash may be empty
// when a document is uploaded with the request.
type CreateContractRequest struct {
	StudentAddress      string          `json:"student_address" form:"student_address" validate:"required"`
	PDFHash             string          `json:"pdf_hash" form:"pdf_hash" validate:"omitempty,max=255"`
	FundingAmount       decimal.Decimal `json:"funding_amount" form:"funding_amount"`
	ReleaseIntervalDays uint64          `json:"release_interval_days" form:"release_interval_days"`
	EquityPercentage    uint64          `json:"equity_percentage" form:"equity_percentage" validate:"lte=100"`
	DurationMonths      uint64          `json:"duration_months" form:"duration_months" validate:"required,gt=0"`
}

// FundContractRequest funds a contract with FundingAmount whole SUI.
type FundContractRequest struct {
	FundingAmount decimal.Decimal `json:"funding_amount"`
}

// PayDividendRequest pays Amount whole SUI into a reward pool.
type PayDividendRequest struct {
	ContractID   string          `json:"contract_id" validate:"required"`
	RewardPoolID string          `json:"reward_pool_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

// ClaimDividendRequest claims a dividend payment.
type ClaimDividendRequest struct {
	RewardPoolID string `json:"reward_pool_id" validate:"required"`
	PaymentIndex uint64 `json:"payment_index"`
}

// ConfirmTransactionRequest reports a digest signed in the browser.
type ConfirmTransactionRequest struct {
	Digest     string `json:"digest" validate:"required,max=64"`
	Action     string `json:"action" validate:"required,oneof=create_student_profile create_investor_profile create_contract accept_contract reject_contract fund_contract pay_dividend claim_dividend"`
	ContractID string `json:"contract_id" validate:"omitempty,max=66"`
}

// PreparedTransactionResponse carries an unsigned payload for the wallet. Objects lists the
// referenced object ids in argument order; Amount is the coin split from gas in whole SUI.
type PreparedTransactionResponse struct {
	Action   string      `json:"action"`
	Target   string      `json:"target"`
	Sender   string      `json:"sender"`
	Payload  sui.Payload `json:"payload"`
	Objects  []string    `json:"objects"`
	Amount   string      `json:"amount,omitempty"`
	Document *Document   `json:"document,omitempty"`
}

// ReceiptResponse describes a confirmed transaction.
type ReceiptResponse struct {
	Digest          string             `json:"digest"`
	Action          string             `json:"action"`
	Status          string             `json:"status"`
	Error           string             `json:"error,omitempty"`
	CreatedObjectID string             `json:"created_object_id,omitempty"`
	MatchedRule     string             `json:"matched_rule,omitempty"`
	ObjectChanges   []sui.ObjectChange `json:"object_changes"`
}

// NewPreparedTransactionResponse wraps payload for sender.
func NewPreparedTransactionResponse(sender string, payload sui.Payload) PreparedTransactionResponse {
	response := PreparedTransactionResponse{
		Action:  payload.Action,
		Target:  payload.Target(),
		Sender:  sender,
		Payload: payload,
		Objects: payload.ObjectArguments(),
	}
	for _, arg := range payload.MoveCall.Arguments {
		if arg.Kind != sui.ArgSplitGas {
			continue
		}
		if mist, err := arg.Uint(); err == nil {
			response.Amount = transaction.FromMist(mist).String()
		}
	}
	return response
}
