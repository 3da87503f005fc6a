package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

// AgeBandFor bands a member by completed years of age at now.
func AgeBandFor(m domain.Member, now time.Time) AgeBand {
	if m.DateOfBirth == nil {
		return AgeBandUnknown
	}
	switch age := domain.CompletedYears(*m.DateOfBirth, now); {
	case age <= 12:
		return AgeBandChild
	case age <= 18:
		return AgeBandTeen
	case age <= 59:
		return AgeBandAdult
	default:
		return AgeBandSenior
	}
}

// DemographicBuckets counts members per age band and gender. Every band is
// present in the result, in AgeBands order.
func DemographicBuckets(members []domain.Member, now time.Time) []AgeBucket {
	idx := make(map[AgeBand]int, len(AgeBands))
	out := make([]AgeBucket, len(AgeBands))
	for i, b := range AgeBands {
		idx[b] = i
		out[i].Band = b
	}
	for _, m := range members {
		b := &out[idx[AgeBandFor(m, now)]]
		switch m.Gender {
		case domain.GenderFemale:
			b.Female++
		case domain.GenderMale:
			b.Male++
		default:
			b.Unspecified++
		}
	}
	return out
}

// TenureBucket bands the years since the member joined the organization.
func TenureBucket(m domain.Member, now time.Time) TenureBand {
	if m.JoinedAt == nil {
		return TenureUnknown
	}
	switch years := domain.CompletedYears(*m.JoinedAt, now); {
	case years < 5:
		return TenureUnder5
	case years < 10:
		return Tenure5To9
	case years < 25:
		return Tenure10To24
	default:
		return Tenure25Plus
	}
}

func TenureCounts(members []domain.Member, now time.Time) []TenureCount {
	out := make([]TenureCount, len(TenureBands))
	for i, b := range TenureBands {
		out[i].Band = b
	}
	for _, m := range members {
		band := TenureBucket(m, now)
		for i := range out {
			if out[i].Band == band {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// BirthdaysByMonth returns twelve entries (January first). Members inside a month
// are ordered by day, then name. Members without a date of birth are skipped.
func BirthdaysByMonth(members []domain.Member) []BirthdayMonth {
	out := make([]BirthdayMonth, 12)
	for i := range out {
		out[i] = BirthdayMonth{Month: i + 1, Members: []domain.Member{}}
	}
	for _, m := range members {
		if m.DateOfBirth == nil {
			continue
		}
		i := int(m.DateOfBirth.Month()) - 1
		out[i].Members = append(out[i].Members, m)
	}
	for i := range out {
		ms := out[i].Members
		sort.SliceStable(ms, func(a, b int) bool {
			da, db := ms[a].DateOfBirth.Day(), ms[b].DateOfBirth.Day()
			if da != db {
				return da < db
			}
			return strings.ToLower(ms[a].DisplayName) < strings.ToLower(ms[b].DisplayName)
		})
	}
	return out
}
