package models

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction actions recorded by the gateway.
const (
	ActionCreateStudentProfile  = "create_student_profile"
	ActionCreateInvestorProfile = "create_investor_profile"
	ActionCreateContract        = "create_contract"
	ActionAcceptContract        = "accept_contract"
	ActionRejectContract        = "reject_contract"
	ActionFundContract          = "fund_contract"
	ActionPayDividend           = "pay_dividend"
	ActionClaimDividend         = "claim_dividend"
)

// TransactionRecord is the audit row of a confirmed ledger transaction.
type TransactionRecord struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Digest          string            `gorm:"size:64;uniqueIndex;not null" json:"digest"`
	Action          string            `gorm:"size:64;index;not null" json:"action"`
	Sender          string            `gorm:"size:66;index" json:"sender"`
	CreatedObjectID string            `gorm:"size:66" json:"created_object_id"`
	MatchedRule     string            `gorm:"size:32" json:"matched_rule"`
	Status          string            `gorm:"size:16;not null" json:"status"`
	Metadata        datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ContractDocument is an uploaded contract PDF referenced on-chain by BlobID.
type ContractDocument struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlobID    string    `gorm:"size:255;uniqueIndex;not null" json:"blob_id"`
	URL       string    `gorm:"size:1024" json:"url"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `gorm:"size:64;index" json:"checksum"`
	Store     string    `gorm:"size:32;not null" json:"store"`
	Uploader  string    `gorm:"size:66;index" json:"uploader"`
	CreatedAt time.Time `json:"created_at"`
}
