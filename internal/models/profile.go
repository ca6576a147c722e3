package models

// ProfileKind discriminates Profile.
type ProfileKind string

// Profile kinds.
const (
	ProfileNone     ProfileKind = "none"
	ProfileStudent  ProfileKind = "student"
	ProfileInvestor ProfileKind = "investor"
)

// Profile is the role an address holds on the ledger. Exactly one of Student and Investor is
// set for the matching Kind; both are nil for ProfileNone.
type Profile struct {
	Kind     ProfileKind `json:"kind"`
	Student  *Student    `json:"student,omitempty"`
	Investor *Investor   `json:"investor,omitempty"`
}

// NoProfile is the profile of an unregistered or unknown address.
func NoProfile() Profile {
	return Profile{Kind: ProfileNone}
}

// StudentProfile wraps a student.
func StudentProfile(s Student) Profile {
	return Profile{Kind: ProfileStudent, Student: &s}
}

// InvestorProfile wraps an investor.
func InvestorProfile(i Investor) Profile {
	return Profile{Kind: ProfileInvestor, Investor: &i}
}
