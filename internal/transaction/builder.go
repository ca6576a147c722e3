// Package transaction builds unsigned ledger payloads for every contract lifecycle action.
// Builders perform no I/O; they validate their input and encode arguments in the exact order
// and wire type each Move function expects.
package transaction

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// MistPerSui converts whole SUI into base units.
const MistPerSui int64 = 1_000_000_000

// DefaultReleaseIntervalDays is used when a contract proposal names no interval.
const DefaultReleaseIntervalDays uint64 = 30

// Move modules and functions targeted by the builders.
const (
	ModuleEduDefi  = "edu_defi"
	ModuleContract = "contract"

	FnStudentCreateProfile  = "student_create_profile"
	FnInvestorCreateProfile = "investor_create_profile"
	FnCreateContract        = "create_and_share_contract"
	FnAcceptContract        = "accept_contract"
	FnRejectContract        = "reject_contract"
	FnFundContract          = "fund_contract_with_tokens"
	FnPayDividend           = "pay_monthly_dividend"
	FnClaimDividend         = "claim_dividend_payment"
)

// ErrInvalidParams is returned when builder input fails validation.
var ErrInvalidParams = errors.New("invalid transaction parameters")

var mistPerSui = decimal.NewFromInt(MistPerSui)

// CreateStudentProfileParams registers the sender as a student. FundingRequested is in whole
// units and encoded as given.
type CreateStudentProfileParams struct {
	Name             string `validate:"required"`
	Surname          string `validate:"required"`
	Age              uint64 `validate:"gt=0"`
	CVHash           string `validate:"required"`
	ProfileImage     string
	FundingRequested uint64
	EquityPercentage uint64 `validate:"lte=100"`
	DurationMonths   uint64 `validate:"gt=0"`
	RegistryID       string `validate:"required,sui_address"`
}

// CreateInvestorProfileParams registers the sender as an investor.
type CreateInvestorProfileParams struct {
	Name         string `validate:"required"`
	Surname      string `validate:"required"`
	Age          uint64 `validate:"gt=0"`
	ProfileImage string
	RegistryID   string `validate:"required,sui_address"`
}

// CreateContractParams proposes a contract to a student. FundingAmount is in whole units.
type CreateContractParams struct {
	StudentAddress      string          `validate:"required,sui_address"`
	PDFHash             string          `validate:"required"`
	FundingAmount       decimal.Decimal `validate:"-"`
	ReleaseIntervalDays uint64
	EquityPercentage    uint64 `validate:"lte=100"`
	DurationMonths      uint64 `validate:"gt=0"`
}

// AcceptParams accepts a proposed contract.
type AcceptParams struct {
	ContractID string `validate:"required,sui_address"`
}

// RejectParams rejects a proposed contract and removes it from the registry.
type RejectParams struct {
	ContractID string `validate:"required,sui_address"`
	RegistryID string `validate:"required,sui_address"`
}

// FundParams funds a contract. FundingAmount is in whole units.
type FundParams struct {
	ContractID    string          `validate:"required,sui_address"`
	FundingAmount decimal.Decimal `validate:"-"`
}

// PayDividendParams pays a dividend into the contract's reward pool. Amount is in whole units.
type PayDividendParams struct {
	ContractID   string          `validate:"required,sui_address"`
	RewardPoolID string          `validate:"required,sui_address"`
	Amount       decimal.Decimal `validate:"-"`
}

// ClaimDividendParams claims the dividend at PaymentIndex from a reward pool.
type ClaimDividendParams struct {
	RewardPoolID string `validate:"required,sui_address"`
	PaymentIndex uint64
}

// Builder constructs payloads against one deployed package.
type Builder struct {
	packageID string
	validate  *validator.Validate
}

// NewBuilder returns a builder for packageID.
func NewBuilder(packageID string) Builder {
	return Builder{packageID: packageID, validate: newValidator()}
}

// PackageID returns the package the builder targets.
func (b Builder) PackageID() string {
	return b.packageID
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("sui_address", func(fl validator.FieldLevel) bool {
		return sui.IsValidAddress(fl.Field().String())
	})
	return v
}

// BuildCreateStudentProfile builds edu_defi::student_create_profile.
func (b Builder) BuildCreateStudentProfile(params CreateStudentProfileParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}

	return b.payload(models.ActionCreateStudentProfile, ModuleEduDefi, FnStudentCreateProfile,
		sui.String(params.Name),
		sui.String(params.Surname),
		sui.U64(params.Age),
		sui.String(params.CVHash),
		sui.String(params.ProfileImage),
		sui.U64(params.FundingRequested),
		sui.U64(params.EquityPercentage),
		sui.U64(params.DurationMonths),
		sui.Object(params.RegistryID),
		sui.Object(sui.ClockObjectID),
	), nil
}

// BuildCreateInvestorProfile builds edu_defi::investor_create_profile.
func (b Builder) BuildCreateInvestorProfile(params CreateInvestorProfileParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}

	return b.payload(models.ActionCreateInvestorProfile, ModuleEduDefi, FnInvestorCreateProfile,
		sui.String(params.Name),
		sui.String(params.Surname),
		sui.U64(params.Age),
		sui.String(params.ProfileImage),
		sui.Object(params.RegistryID),
		sui.Object(sui.ClockObjectID),
	), nil
}

// BuildCreateContract builds contract::create_and_share_contract.
func (b Builder) BuildCreateContract(params CreateContractParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}
	funding, err := ToMist(params.FundingAmount)
	if err != nil {
		return sui.Payload{}, fmt.Errorf("%w: funding amount: %v", ErrInvalidParams, err)
	}

	interval := params.ReleaseIntervalDays
	if interval == 0 {
		interval = DefaultReleaseIntervalDays
	}

	return b.payload(models.ActionCreateContract, ModuleContract, FnCreateContract,
		sui.Address(params.StudentAddress),
		sui.String(params.PDFHash),
		sui.U64(funding),
		sui.U64(interval),
		sui.U64(params.EquityPercentage),
		sui.U64(params.DurationMonths),
		sui.Object(sui.ClockObjectID),
	), nil
}

// BuildAccept builds contract::accept_contract. The contract is the only argument.
func (b Builder) BuildAccept(params AcceptParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}

	return b.payload(models.ActionAcceptContract, ModuleContract, FnAcceptContract,
		sui.Object(params.ContractID),
	), nil
}

// BuildReject builds contract::reject_contract.
func (b Builder) BuildReject(params RejectParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}

	return b.payload(models.ActionRejectContract, ModuleContract, FnRejectContract,
		sui.Object(params.ContractID),
		sui.Object(params.RegistryID),
	), nil
}

// BuildFund builds contract::fund_contract_with_tokens, paying with a coin split from gas.
func (b Builder) BuildFund(params FundParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}
	amount, err := ToMist(params.FundingAmount)
	if err != nil {
		return sui.Payload{}, fmt.Errorf("%w: funding amount: %v", ErrInvalidParams, err)
	}

	return b.payload(models.ActionFundContract, ModuleContract, FnFundContract,
		sui.Object(params.ContractID),
		sui.SplitGas(amount),
		sui.Object(sui.ClockObjectID),
	), nil
}

// BuildPayDividend builds contract::pay_monthly_dividend.
func (b Builder) BuildPayDividend(params PayDividendParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}
	amount, err := ToMist(params.Amount)
	if err != nil {
		return sui.Payload{}, fmt.Errorf("%w: dividend amount: %v", ErrInvalidParams, err)
	}

	return b.payload(models.ActionPayDividend, ModuleContract, FnPayDividend,
		sui.Object(params.ContractID),
		sui.Object(params.RewardPoolID),
		sui.SplitGas(amount),
		sui.Object(sui.ClockObjectID),
	), nil
}

// BuildClaimDividend builds contract::claim_dividend_payment.
func (b Builder) BuildClaimDividend(params ClaimDividendParams) (sui.Payload, error) {
	if err := b.check(params); err != nil {
		return sui.Payload{}, err
	}

	return b.payload(models.ActionClaimDividend, ModuleContract, FnClaimDividend,
		sui.Object(params.RewardPoolID),
		sui.U64(params.PaymentIndex),
	), nil
}

// ToMist converts a whole-unit amount to base units. The result must be a non-negative
// integer that fits in a u64.
func ToMist(amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", amount.String())
	}

	scaled := amount.Mul(mistPerSui)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than 9 decimal places", amount.String())
	}
	if !scaled.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64", amount.String())
	}

	return scaled.BigInt().Uint64(), nil
}

// FromMist converts base units back to whole units.
func FromMist(mist uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(mist), 0).Div(mistPerSui)
}

func (b Builder) check(params interface{}) error {
	if strings.TrimSpace(b.packageID) == "" {
		return fmt.Errorf("%w: package id is not configured", ErrInvalidParams)
	}
	if err := b.validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func (b Builder) payload(action, module, function string, args ...sui.Argument) sui.Payload {
	return sui.Payload{
		Action: action,
		MoveCall: sui.MoveCall{
			Package:   b.packageID,
			Module:    module,
			Function:  function,
			Arguments: args,
		},
	}
}
