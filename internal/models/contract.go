package models

// Contract is a funding agreement between a student and an investor. Monetary fields are in
// ledger base units.
//
// HasTokensIssued and RewardPoolID are read independently and can disagree for a while after
// funding: tokens may already be issued before the pool id is observable.
type Contract struct {
	ID                   string  `json:"id"`
	StudentAddress       string  `json:"student_address"`
	InvestorAddress      string  `json:"investor_address"`
	PDFHash              string  `json:"pdf_hash"`
	FundingAmount        uint64  `json:"funding_amount"`
	ReleaseIntervalDays  uint64  `json:"release_interval_days"`
	EquityPercentage     uint64  `json:"equity_percentage"`
	DurationMonths       uint64  `json:"duration_months"`
	Balance              uint64  `json:"balance"`
	FundsReleased        uint64  `json:"funds_released"`
	NextReleaseTime      uint64  `json:"next_release_time"`
	StudentMonthlyIncome uint64  `json:"student_monthly_income"`
	IsActive             bool    `json:"is_active"`
	RewardPoolID         *string `json:"reward_pool_id"`
	HasTokensIssued      bool    `json:"has_tokens_issued"`
}

// EntityKind implements Entity.
func (Contract) EntityKind() EntityKind { return EntityContract }

// Registry sub-collection names.
const (
	CollectionStudents  = "students"
	CollectionInvestors = "investors"
	CollectionContracts = "contracts"
)

// StructType returns the fully qualified Move type of kind under packageID.
func StructType(packageID string, kind EntityKind) string {
	switch kind {
	case EntityStudent:
		return packageID + "::student::Student"
	case EntityInvestor:
		return packageID + "::investor::Investor"
	case EntityContract:
		return packageID + "::contract::Contract"
	default:
		return ""
	}
}
