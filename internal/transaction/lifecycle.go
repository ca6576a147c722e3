package transaction

import (
	"fmt"

	"github.com/noah-isme/edudefi-go-api/internal/models"
)

// Party is the contract participant expected to sign a step.
type Party string

// Contract parties.
const (
	PartyInvestor Party = "investor"
	PartyStudent  Party = "student"
)

// Stage is the client-side view of a contract's on-chain lifecycle.
type Stage string

// Observed contract stages.
const (
	StageProposed        Stage = "proposed"
	StageAccepted        Stage = "accepted"
	StageActive          Stage = "active"
	StageDividendPaid    Stage = "dividend_paid"
	StageDividendClaimed Stage = "dividend_claimed"
	StageRejected        Stage = "rejected"
)

// LifecycleStep describes one action of the six-step walkthrough. Preconditions are enforced
// by the ledger; the table only says which action a step exposes next.
type LifecycleStep struct {
	Step   int
	Action string
	Signer Party
	Next   int
	Stage  Stage
}

var lifecycle = map[int]LifecycleStep{
	models.StepCreate:      {Step: models.StepCreate, Action: models.ActionCreateContract, Signer: PartyInvestor, Next: models.StepAccept, Stage: StageProposed},
	models.StepAccept:      {Step: models.StepAccept, Action: models.ActionAcceptContract, Signer: PartyStudent, Next: models.StepFund, Stage: StageAccepted},
	models.StepFund:        {Step: models.StepFund, Action: models.ActionFundContract, Signer: PartyInvestor, Next: models.StepPayDividend, Stage: StageActive},
	models.StepPayDividend: {Step: models.StepPayDividend, Action: models.ActionPayDividend, Signer: PartyStudent, Next: models.StepClaim, Stage: StageDividendPaid},
	models.StepClaim:       {Step: models.StepClaim, Action: models.ActionClaimDividend, Signer: PartyInvestor, Next: models.StepComplete, Stage: StageDividendClaimed},
}

// StepFor returns the lifecycle entry of step. Step 6 and the rejected state expose no action.
func StepFor(step int) (LifecycleStep, error) {
	entry, ok := lifecycle[step]
	if !ok {
		return LifecycleStep{}, fmt.Errorf("%w: step %d has no action", ErrInvalidParams, step)
	}
	return entry, nil
}

// StageAt reports the stage a walkthrough has reached once every step before step confirmed.
// It is empty while nothing has been committed.
func StageAt(step int, status string) Stage {
	if status == models.DemoStatusRejected {
		return StageRejected
	}
	if previous, ok := lifecycle[step-1]; ok {
		return previous.Stage
	}
	return ""
}
