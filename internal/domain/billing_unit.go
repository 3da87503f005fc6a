package domain

import (
	"sort"
	"strings"
)

type UnitKind string

const (
	UnitKindSingle UnitKind = "SINGLE"
	UnitKindCouple UnitKind = "COUPLE"
)

// BillingUnit is the smallest group against which one monthly due is assessed:
// either a single member or a couple linked by spouse-name references.
// Units are derived on demand and never stored.
type BillingUnit struct {
	kind    UnitKind
	members []Member
}

func SingleUnit(m Member) BillingUnit {
	return BillingUnit{kind: UnitKindSingle, members: []Member{m}}
}

func CoupleUnit(a, b Member) BillingUnit {
	return BillingUnit{kind: UnitKindCouple, members: []Member{a, b}}
}

func (u BillingUnit) Kind() UnitKind { return u.kind }
func (u BillingUnit) IsCouple() bool { return u.kind == UnitKindCouple }
func (u BillingUnit) Size() int      { return len(u.members) }

// Members returns a copy of the unit's members, first-resolved member first.
func (u BillingUnit) Members() []Member {
	return append([]Member(nil), u.members...)
}

func (u BillingUnit) MemberIDs() []MemberID {
	out := make([]MemberID, 0, len(u.members))
	for _, m := range u.members {
		out = append(out, m.ID)
	}
	return out
}

func (u BillingUnit) Contains(id MemberID) bool {
	for _, m := range u.members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// PaymentInactive reports whether the unit is administratively paused.
// Flagging any member pauses the whole unit.
func (u BillingUnit) PaymentInactive() bool {
	for _, m := range u.members {
		if m.PaymentInactive {
			return true
		}
	}
	return false
}

// TeamID returns the team of the unit's first member.
func (u BillingUnit) TeamID() TeamID {
	if len(u.members) == 0 {
		return ""
	}
	return u.members[0].TeamID
}

// Key is an order-independent identity for the unit: sorted member ids joined by "+".
func (u BillingUnit) Key() string {
	ids := make([]string, 0, len(u.members))
	for _, m := range u.members {
		ids = append(ids, string(m.ID))
	}
	sort.Strings(ids)
	return strings.Join(ids, "+")
}

// ResolveUnits partitions members into billing units.
//
// Members are visited in input order. For each unassigned member the remaining
// unassigned members are scanned, in order, for a spouse match; the first match
// forms a couple and both leave the candidate pool. Everyone else becomes a
// single unit. Every input member ends up in exactly one unit, and unit order
// follows the input position of each unit's first member.
func ResolveUnits(members []Member) []BillingUnit {
	assigned := make([]bool, len(members))
	out := make([]BillingUnit, 0, len(members))

	for i, m := range members {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		partner := -1
		for j := i + 1; j < len(members); j++ {
			if assigned[j] {
				continue
			}
			if spousesMatch(m, members[j]) {
				partner = j
				break
			}
		}
		if partner < 0 {
			out = append(out, SingleUnit(m))
			continue
		}
		assigned[partner] = true
		out = append(out, CoupleUnit(m, members[partner]))
	}
	return out
}

// FindUnit returns the unit containing the member.
func FindUnit(units []BillingUnit, id MemberID) (BillingUnit, bool) {
	for _, u := range units {
		if u.Contains(id) {
			return u, true
		}
	}
	return BillingUnit{}, false
}

// spousesMatch succeeds when either member's spouse name refers to the other.
func spousesMatch(a, b Member) bool {
	if a.ID == b.ID {
		return false
	}
	return refersTo(a.SpouseName, b) || refersTo(b.SpouseName, a)
}

func refersTo(spouseName string, m Member) bool {
	return SameHumanName(spouseName, m.DisplayName) || SameHumanName(spouseName, m.Nickname)
}
