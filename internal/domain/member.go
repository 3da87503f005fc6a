package domain

import "time"

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "ACTIVE"
	MemberStatusInactive MemberStatus = "INACTIVE"
	MemberStatusPending  MemberStatus = "PENDING"
	MemberStatusInvited  MemberStatus = "INVITED"
	MemberStatusWaiting  MemberStatus = "WAITING"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusPending, MemberStatusInvited, MemberStatusWaiting:
		return true
	}
	return false
}

type Gender string

const (
	GenderFemale      Gender = "FEMALE"
	GenderMale        Gender = "MALE"
	GenderUnspecified Gender = "UNSPECIFIED"
)

// Member is the domain representation of a registered member.
//
// SpouseName is a free-text cross reference, not a foreign key: couples are
// derived from it on every resolution pass (see ResolveUnits).
type Member struct {
	ID MemberID

	DisplayName string
	Nickname    string
	SpouseName  string

	// TeamID is empty when the member is not affiliated with a team yet.
	TeamID TeamID

	// PaymentInactive pauses dues obligations for the member's billing unit.
	PaymentInactive bool

	Status      MemberStatus
	Gender      Gender
	DateOfBirth *time.Time // date-only semantics
	JoinedAt    *time.Time // date-only semantics; organization join date

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Team is a pure grouping entity owning zero-to-many members.
type Team struct {
	ID      TeamID
	Name    string
	City    string
	IsYouth bool

	CreatedAt time.Time
}
