package models

// EntityKind names the ledger struct a materialized entity was decoded from.
type EntityKind string

// Supported entity kinds.
const (
	EntityStudent  EntityKind = "student"
	EntityInvestor EntityKind = "investor"
	EntityContract EntityKind = "contract"
)

// Entity is a strongly typed ledger object produced by the materializer.
type Entity interface {
	EntityKind() EntityKind
}

// Student is a funding-seeking learner registered on the ledger. FundingRequested is kept
// in whole units as submitted at registration; it is never scaled to base units.
type Student struct {
	ID               string `json:"id"`
	Owner            string `json:"owner"`
	Name             string `json:"name"`
	Surname          string `json:"surname"`
	Age              uint64 `json:"age"`
	CVHash           string `json:"cv_hash"`
	ProfileImage     string `json:"profile_image"`
	FundingRequested uint64 `json:"funding_requested"`
	EquityPercentage uint64 `json:"equity_percentage"`
	DurationMonths   uint64 `json:"duration_months"`
	CreatedAt        uint64 `json:"created_at"`
}

// EntityKind implements Entity.
func (Student) EntityKind() EntityKind { return EntityStudent }

// FullName joins name and surname.
func (s Student) FullName() string { return joinName(s.Name, s.Surname) }

// Investor is a funder registered on the ledger.
type Investor struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Age          uint64 `json:"age"`
	ProfileImage string `json:"profile_image"`
	CreatedAt    uint64 `json:"created_at"`
}

// EntityKind implements Entity.
func (Investor) EntityKind() EntityKind { return EntityInvestor }

// FullName joins name and surname.
func (i Investor) FullName() string { return joinName(i.Name, i.Surname) }

func joinName(name, surname string) string {
	switch {
	case name == "":
		return surname
	case surname == "":
		return name
	default:
		return name + " " + surname
	}
}
