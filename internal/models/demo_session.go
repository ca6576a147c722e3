package models

import "time"

// Lifecycle steps of the demo workflow. StepComplete is reached after the dividend is claimed.
const (
	StepCreate      = 1
	StepAccept      = 2
	StepFund        = 3
	StepPayDividend = 4
	StepClaim       = 5
	StepComplete    = 6
)

// Demo session statuses.
const (
	DemoStatusActive    = "active"
	DemoStatusCompleted = "completed"
	DemoStatusRejected  = "rejected"
)

// DemoSession persists the progress of one wallet through the contract lifecycle walkthrough.
type DemoSession struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	WalletAddress  string    `gorm:"size:66;index;not null" json:"wallet_address"`
	Step           int       `gorm:"not null;default:1" json:"step"`
	Status         string    `gorm:"size:16;not null;default:'active'" json:"status"`
	StudentAddress string    `gorm:"size:66" json:"student_address"`
	PDFHash        string    `gorm:"size:255" json:"pdf_hash"`
	ContractID     string    `gorm:"size:66" json:"contract_id"`
	RewardPoolID   string    `gorm:"size:66" json:"reward_pool_id"`
	FundingAmount  string    `gorm:"size:64" json:"funding_amount"`
	DividendAmount string    `gorm:"size:64" json:"dividend_amount"`
	EquityPercent  uint64    `json:"equity_percentage"`
	DurationMonths uint64    `json:"duration_months"`
	LastDigest     string    `gorm:"size:64" json:"last_digest"`
	LastError      string    `gorm:"size:1024" json:"last_error"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsTerminal reports whether the session can no longer advance.
func (d DemoSession) IsTerminal() bool {
	return d.Status != DemoStatusActive || d.Step >= StepComplete
}
