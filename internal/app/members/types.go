package members

import (
	"time"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type RegisterMemberInput struct {
	DisplayName string
	Nickname    string
	SpouseName  string
	TeamID      domain.TeamID // empty: not affiliated yet

	Status      domain.MemberStatus // defaults to ACTIVE
	Gender      domain.Gender       // defaults to UNSPECIFIED
	DateOfBirth *time.Time
	JoinedAt    *time.Time
}

// UpdateMemberProfileInput is a partial profile edit. The payment-inactive flag is
// not editable here; it is owned by the dues ledger's unit toggle.
type UpdateMemberProfileInput struct {
	DisplayName Optional[string] // cannot be null
	Nickname    Optional[string] // null clears
	SpouseName  Optional[string] // null clears

	TeamID Optional[domain.TeamID] // null leaves the member unaffiliated

	Status      Optional[domain.MemberStatus] // cannot be null
	Gender      Optional[domain.Gender]       // null resets to UNSPECIFIED
	DateOfBirth Optional[time.Time]
	JoinedAt    Optional[time.Time]
}

type CreateTeamInput struct {
	Name    string
	City    string
	IsYouth bool
}
