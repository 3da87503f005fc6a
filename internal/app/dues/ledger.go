package dues

import "github.com/mfc-unidade/treasury-api/internal/domain"

// ledgerIndex answers settled-month questions over a loaded slice of records.
type ledgerIndex map[domain.MemberID]map[domain.RefMonth]struct{}

func indexSettled(ps []domain.DuesPayment) ledgerIndex {
	idx := make(ledgerIndex)
	for _, p := range ps {
		if !p.Status.Settles() {
			continue
		}
		months, ok := idx[p.MemberID]
		if !ok {
			months = make(map[domain.RefMonth]struct{})
			idx[p.MemberID] = months
		}
		months[p.Month] = struct{}{}
	}
	return idx
}

func (idx ledgerIndex) settled(id domain.MemberID, month domain.RefMonth) bool {
	_, ok := idx[id][month]
	return ok
}

func (idx ledgerIndex) unitPaid(u domain.BillingUnit, month domain.RefMonth) bool {
	if u.Size() == 0 {
		return false
	}
	for _, id := range u.MemberIDs() {
		if !idx.settled(id, month) {
			return false
		}
	}
	return true
}

func (idx ledgerIndex) unsettled(u domain.BillingUnit, month domain.RefMonth) []domain.Member {
	out := make([]domain.Member, 0, u.Size())
	for _, m := range u.Members() {
		if !idx.settled(m.ID, month) {
			out = append(out, m)
		}
	}
	return out
}

func (idx ledgerIndex) pendingMonths(u domain.BillingUnit, upto domain.RefMonth) []domain.RefMonth {
	out := make([]domain.RefMonth, 0)
	if u.PaymentInactive() {
		return out
	}
	for _, m := range upto.YearToDate() {
		if !idx.unitPaid(u, m) {
			out = append(out, m)
		}
	}
	return out
}
