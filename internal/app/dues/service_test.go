package dues

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	memclock "github.com/mfc-unidade/treasury-api/internal/adapters/memory/clock"
	memeventbus "github.com/mfc-unidade/treasury-api/internal/adapters/memory/eventbus"
	memmemberrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/memberrepo"
	mempaymentrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/paymentrepo"
	memteamrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/teamrepo"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventbus"
)

type fixture struct {
	svc      *Service
	members  *memmemberrepo.Repo
	teams    *memteamrepo.Repo
	payments *mempaymentrepo.Repo
	clk      *memclock.ManualClock
	bus      *memeventbus.Recorder
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		members:  memmemberrepo.NewRepo(),
		teams:    memteamrepo.NewRepo(),
		payments: mempaymentrepo.NewRepo(),
		clk:      memclock.NewManualClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)),
		bus:      memeventbus.NewRecorder(),
	}
	f.svc = NewService(f.members, f.teams, f.payments, f.clk)
	f.svc.Bus = f.bus
	if err := f.teams.Create(context.Background(), domain.Team{ID: "t1", Name: "Equipe 1"}); err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return f
}

func (f *fixture) addMember(t *testing.T, id, name, spouse string) domain.Member {
	t.Helper()
	f.seq++
	m := domain.Member{
		ID:          domain.MemberID(id),
		DisplayName: name,
		SpouseName:  spouse,
		TeamID:      "t1",
		Status:      domain.MemberStatusActive,
		CreatedAt:   time.Unix(int64(f.seq), 0).UTC(),
	}
	if err := f.members.Create(context.Background(), m); err != nil {
		t.Fatalf("seed member %s: %v", id, err)
	}
	return m
}

func month(t *testing.T, s string) domain.RefMonth {
	t.Helper()
	m, err := domain.ParseRefMonth(s)
	if err != nil {
		t.Fatalf("ParseRefMonth(%q): %v", s, err)
	}
	return m
}

func requireAppError(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v (type=%T), want %s %d", err, err, code, status)
	}
}

func TestService_SingleUnitWithNoPayments(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m1 := f.addMember(t, "m1", "Marcos", "")
	unit := domain.SingleUnit(m1)
	ctx := context.Background()

	paid, err := f.svc.IsUnitPaid(ctx, unit, month(t, "6/2024"))
	if err != nil || paid {
		t.Fatalf("IsUnitPaid()=%v,%v want false,nil", paid, err)
	}

	pending, err := f.svc.PendingMonths(ctx, unit, month(t, "6/2024"))
	if err != nil {
		t.Fatalf("PendingMonths() err=%v", err)
	}
	want := []string{"1/2024", "2/2024", "3/2024", "4/2024", "5/2024", "6/2024"}
	if len(pending) != len(want) {
		t.Fatalf("PendingMonths()=%v, want %v", pending, want)
	}
	for i, m := range pending {
		if m.String() != want[i] {
			t.Fatalf("PendingMonths()[%d]=%s, want %s", i, m, want[i])
		}
	}
}

func TestService_CoupleMonthlyDue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addMember(t, "m1", "M1", "M2")
	f.addMember(t, "m2", "M2", "M1")

	units, err := f.svc.TeamUnits(context.Background(), "t1")
	if err != nil {
		t.Fatalf("TeamUnits() err=%v", err)
	}
	if len(units) != 1 || !units[0].IsCouple() {
		t.Fatalf("TeamUnits()=%v, want one couple", units)
	}
	if got := f.svc.UnitMonthlyDue(units[0]); !got.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("UnitMonthlyDue()=%s, want 30.00", got)
	}
	if got := domain.FormatMoney(f.svc.UnitMonthlyDue(units[0])); got != "R$ 30,00" {
		t.Fatalf("FormatMoney=%q, want R$ 30,00", got)
	}

	rate := decimal.RequireFromString("25.00")
	f.svc.Rates.CoupleRate = &rate
	if got := f.svc.UnitMonthlyDue(units[0]); !got.Equal(rate) {
		t.Fatalf("UnitMonthlyDue() with couple rate=%s, want 25.00", got)
	}
}

func TestService_LaunchPayment_ThenPaidAndRejectsRepeat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m1 := f.addMember(t, "m1", "Marcos", "")
	unit := domain.SingleUnit(m1)
	ctx := context.Background()
	june := month(t, "6/2024")

	in := LaunchPaymentInput{Unit: unit, Month: june, Amount: decimal.RequireFromString("15.00"), RecordedBy: "op-1"}
	recs, err := f.svc.LaunchPayment(ctx, in)
	if err != nil {
		t.Fatalf("LaunchPayment() err=%v", err)
	}
	if len(recs) != 1 || recs[0].MemberID != "m1" || recs[0].Status != domain.PaymentStatusPaid || recs[0].Month != june {
		t.Fatalf("LaunchPayment()=%+v", recs)
	}
	if !recs[0].PaidOn.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("PaidOn=%v, want today's date", recs[0].PaidOn)
	}

	paid, err := f.svc.IsUnitPaid(ctx, unit, june)
	if err != nil || !paid {
		t.Fatalf("IsUnitPaid()=%v,%v want true,nil", paid, err)
	}
	pending, _ := f.svc.PendingMonths(ctx, unit, june)
	for _, m := range pending {
		if m == june {
			t.Fatalf("PendingMonths() still contains %s", june)
		}
	}

	_, err = f.svc.LaunchPayment(ctx, in)
	requireAppError(t, err, 409, "ALREADY_SETTLED")

	all, _ := f.payments.ListByMembers(ctx, unit.MemberIDs())
	if len(all) != unit.Size() {
		t.Fatalf("records=%d, want %d", len(all), unit.Size())
	}

	msgs := f.bus.Topic(eventbus.TopicPaymentLaunched)
	if len(msgs) != 1 {
		t.Fatalf("published %d payment messages, want 1", len(msgs))
	}
	payload, ok := msgs[0].Payload.(PaymentLaunched)
	if !ok || payload.Total != "15.00" || payload.Month != june {
		t.Fatalf("payload=%#v", msgs[0].Payload)
	}
}

func TestService_LaunchPayment_CoupleSplitsAmount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addMember(t, "m1", "Ana", "Bruno")
	f.addMember(t, "m2", "Bruno", "Ana")
	ctx := context.Background()

	unit, err := f.svc.UnitForMember(ctx, "m2")
	if err != nil {
		t.Fatalf("UnitForMember() err=%v", err)
	}
	recs, err := f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: unit, Month: month(t, "3/2024"), Amount: decimal.RequireFromString("30.01"), RecordedBy: "op-1"})
	if err != nil {
		t.Fatalf("LaunchPayment() err=%v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(records)=%d, want 2", len(recs))
	}
	if !recs[0].Amount.Equal(decimal.RequireFromString("15.01")) || !recs[1].Amount.Equal(decimal.RequireFromString("15.00")) {
		t.Fatalf("amounts=%s,%s want 15.01,15.00", recs[0].Amount, recs[1].Amount)
	}

	total, err := f.svc.UnitMonthTotal(ctx, unit, month(t, "3/2024"))
	if err != nil || !total.Equal(decimal.RequireFromString("30.01")) {
		t.Fatalf("UnitMonthTotal()=%s,%v want 30.01", total, err)
	}
}

func TestService_LaunchPayment_DefaultsToDueAndCompletesPartialUnit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.addMember(t, "m1", "Ana", "Bruno")
	b := f.addMember(t, "m2", "Bruno", "Ana")
	ctx := context.Background()
	april := month(t, "4/2024")

	// Bruno alone was exempted, so only Ana still owes.
	if _, err := f.svc.RecordExemption(ctx, domain.SingleUnit(b), april, "op-1"); err != nil {
		t.Fatalf("RecordExemption() err=%v", err)
	}
	unit := domain.CoupleUnit(a, b)
	paid, _ := f.svc.IsUnitPaid(ctx, unit, april)
	if paid {
		t.Fatalf("IsUnitPaid()=true with one member unsettled")
	}

	recs, err := f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: unit, Month: april, RecordedBy: "op-1"})
	if err != nil {
		t.Fatalf("LaunchPayment() err=%v", err)
	}
	if len(recs) != 1 || recs[0].MemberID != "m1" || !recs[0].Amount.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("LaunchPayment()=%+v, want one 15.00 record for m1", recs)
	}
	if paid, _ := f.svc.IsUnitPaid(ctx, unit, april); !paid {
		t.Fatalf("IsUnitPaid()=false after completing the unit")
	}
}

func TestService_RecordExemption_CountsAsPaid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m1 := f.addMember(t, "m1", "Carla", "")
	unit := domain.SingleUnit(m1)
	ctx := context.Background()

	recs, err := f.svc.RecordExemption(ctx, unit, month(t, "2/2024"), "op-1")
	if err != nil {
		t.Fatalf("RecordExemption() err=%v", err)
	}
	if len(recs) != 1 || recs[0].Status != domain.PaymentStatusExempt || !recs[0].Amount.IsZero() {
		t.Fatalf("RecordExemption()=%+v", recs)
	}
	if paid, _ := f.svc.IsUnitPaid(ctx, unit, month(t, "2/2024")); !paid {
		t.Fatalf("exempt month not treated as paid")
	}
	_, err = f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: unit, Month: month(t, "2/2024"), RecordedBy: "op-1"})
	requireAppError(t, err, 409, "ALREADY_SETTLED")

	// Exemptions never show up as collected money.
	total, _ := f.svc.UnitMonthTotal(ctx, unit, month(t, "2/2024"))
	if !total.IsZero() {
		t.Fatalf("UnitMonthTotal()=%s, want 0", total)
	}
}

func TestService_LaunchPayment_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m1 := f.addMember(t, "m1", "Davi", "")
	unit := domain.SingleUnit(m1)
	ctx := context.Background()

	cases := []struct {
		name  string
		in    LaunchPaymentInput
		field string
	}{
		{"empty unit", LaunchPaymentInput{Month: month(t, "1/2024"), RecordedBy: "op"}, "unit"},
		{"bad month", LaunchPaymentInput{Unit: unit, Month: domain.RefMonth{Month: 13, Year: 2024}, RecordedBy: "op"}, "month"},
		{"negative amount", LaunchPaymentInput{Unit: unit, Month: month(t, "1/2024"), Amount: decimal.NewFromInt(-1), RecordedBy: "op"}, "amount"},
		{"no operator", LaunchPaymentInput{Unit: unit, Month: month(t, "1/2024")}, "recordedBy"},
	}
	for _, tc := range cases {
		_, err := f.svc.LaunchPayment(ctx, tc.in)
		ae := (*Error)(nil)
		if !errors.As(err, &ae) || ae.Status != 422 || ae.Details[tc.field] == nil {
			t.Fatalf("%s: err=%v, want 422 on %s", tc.name, err, tc.field)
		}
	}
	if recs, _ := f.payments.ListByMembers(ctx, unit.MemberIDs()); len(recs) != 0 {
		t.Fatalf("validation failures wrote %d records", len(recs))
	}
}

func TestService_PaymentInactiveUnit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addMember(t, "m1", "Ana", "Bruno")
	f.addMember(t, "m2", "Bruno", "Ana")
	ctx := context.Background()

	unit, _ := f.svc.UnitForMember(ctx, "m1")
	if err := f.svc.ToggleUnitActive(ctx, unit, false); err != nil {
		t.Fatalf("ToggleUnitActive() err=%v", err)
	}
	unit, _ = f.svc.UnitForMember(ctx, "m1")
	if !unit.PaymentInactive() {
		t.Fatalf("unit still active after toggle")
	}
	if due := f.svc.UnitMonthlyDue(unit); !due.IsZero() {
		t.Fatalf("UnitMonthlyDue()=%s, want 0", due)
	}
	pending, err := f.svc.PendingMonths(ctx, unit, month(t, "6/2024"))
	if err != nil || len(pending) != 0 {
		t.Fatalf("PendingMonths()=%v,%v want empty", pending, err)
	}
	_, err = f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: unit, Month: month(t, "6/2024"), RecordedBy: "op"})
	requireAppError(t, err, 422, "VALIDATION_ERROR")

	if err := f.svc.ToggleUnitActive(ctx, unit, true); err != nil {
		t.Fatalf("ToggleUnitActive(true) err=%v", err)
	}
	unit, _ = f.svc.UnitForMember(ctx, "m2")
	if unit.PaymentInactive() || !f.svc.UnitMonthlyDue(unit).Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unit not resumed: inactive=%v due=%s", unit.PaymentInactive(), f.svc.UnitMonthlyDue(unit))
	}
	if got := len(f.bus.Topic(eventbus.TopicUnitToggled)); got != 2 {
		t.Fatalf("toggle messages=%d, want 2", got)
	}
}

func TestService_IsUnitPaid_IdempotentRead(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m1 := f.addMember(t, "m1", "Eva", "")
	unit := domain.SingleUnit(m1)
	ctx := context.Background()
	may := month(t, "5/2024")

	for _, want := range []bool{false, true} {
		first, err1 := f.svc.IsUnitPaid(ctx, unit, may)
		second, err2 := f.svc.IsUnitPaid(ctx, unit, may)
		if err1 != nil || err2 != nil || first != second || first != want {
			t.Fatalf("IsUnitPaid() reads=%v,%v want %v twice", first, second, want)
		}
		if !want {
			if _, err := f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: unit, Month: may, RecordedBy: "op"}); err != nil {
				t.Fatalf("LaunchPayment() err=%v", err)
			}
		}
	}
}

func TestService_LaunchPayment_ConcurrentCallsSettleOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addMember(t, "m1", "Ana", "Bruno")
	f.addMember(t, "m2", "Bruno", "Ana")
	ctx := context.Background()
	unit, _ := f.svc.UnitForMember(ctx, "m1")
	jan := month(t, "1/2024")

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		settled int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: unit, Month: jan, RecordedBy: "op"})
			mu.Lock()
			defer mu.Unlock()
			ae := (*Error)(nil)
			switch {
			case err == nil:
				ok++
			case errors.As(err, &ae) && ae.Code == "ALREADY_SETTLED":
				settled++
			default:
				t.Errorf("LaunchPayment() err=%v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || settled != callers-1 {
		t.Fatalf("ok=%d settled=%d, want 1 and %d", ok, settled, callers-1)
	}
	recs, _ := f.payments.ListByMembers(ctx, unit.MemberIDs())
	if len(recs) != unit.Size() {
		t.Fatalf("records=%d, want %d", len(recs), unit.Size())
	}
}

func TestService_TeamMonthStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addMember(t, "m1", "Ana", "Bruno")
	f.addMember(t, "m2", "Bruno", "Ana")
	m3 := f.addMember(t, "m3", "Carla", "")
	ctx := context.Background()
	mar := month(t, "3/2024")

	if _, err := f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: domain.SingleUnit(m3), Month: mar, RecordedBy: "op"}); err != nil {
		t.Fatalf("LaunchPayment() err=%v", err)
	}

	rows, err := f.svc.TeamMonthStatus(ctx, "t1", mar)
	if err != nil {
		t.Fatalf("TeamMonthStatus() err=%v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}
	couple, single := rows[0], rows[1]
	if !couple.Unit.IsCouple() || couple.Paid || len(couple.PendingMonths) != 3 || !couple.Due.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("couple row=%+v", couple)
	}
	if single.Unit.IsCouple() || !single.Paid || len(single.PendingMonths) != 2 {
		t.Fatalf("single row=%+v", single)
	}

	_, err = f.svc.TeamMonthStatus(ctx, "missing", mar)
	requireAppError(t, err, 404, "TEAM_NOT_FOUND")
}

func TestService_MonthlyTotalsAndHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m1 := f.addMember(t, "m1", "Ana", "")
	m2 := f.addMember(t, "m2", "Davi", "")
	ctx := context.Background()

	launch := func(m domain.Member, mon string, amount string) {
		t.Helper()
		f.clk.Advance(time.Minute)
		_, err := f.svc.LaunchPayment(ctx, LaunchPaymentInput{Unit: domain.SingleUnit(m), Month: month(t, mon), Amount: decimal.RequireFromString(amount), RecordedBy: "op"})
		if err != nil {
			t.Fatalf("LaunchPayment(%s) err=%v", mon, err)
		}
	}
	launch(m1, "1/2024", "15")
	launch(m2, "1/2024", "20")
	launch(m1, "2/2024", "15")
	launch(m1, "12/2023", "15")
	f.clk.Advance(time.Minute)
	if _, err := f.svc.RecordExemption(ctx, domain.SingleUnit(m2), month(t, "2/2024"), "op"); err != nil {
		t.Fatalf("RecordExemption() err=%v", err)
	}

	totals, err := f.svc.MonthlyTotals(ctx, "t1", 2024)
	if err != nil {
		t.Fatalf("MonthlyTotals() err=%v", err)
	}
	if len(totals) != 12 || !totals[0].Total.Equal(decimal.NewFromInt(35)) || !totals[1].Total.Equal(decimal.NewFromInt(15)) || !totals[2].Total.IsZero() {
		t.Fatalf("MonthlyTotals()=%v", totals)
	}
	org, _ := f.svc.MonthlyTotals(ctx, "", 2024)
	if !org[0].Total.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("org MonthlyTotals()[0]=%s, want 35", org[0].Total)
	}

	hist, err := f.svc.PaymentHistory(ctx, "t1", 2)
	if err != nil {
		t.Fatalf("PaymentHistory() err=%v", err)
	}
	if len(hist) != 2 || hist[0].Status != domain.PaymentStatusExempt || hist[1].Month != month(t, "12/2023") {
		t.Fatalf("PaymentHistory()=%+v", hist)
	}
	_, err = f.svc.PaymentHistory(ctx, "t1", 1000)
	requireAppError(t, err, 422, "VALIDATION_ERROR")
}

func TestService_UnitForMember(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_ = f.members.Create(ctx, domain.Member{ID: "x1", DisplayName: "Sem Equipe", SpouseName: "Outra", CreatedAt: time.Unix(1, 0)})
	_ = f.members.Create(ctx, domain.Member{ID: "x2", DisplayName: "Outra", CreatedAt: time.Unix(2, 0)})

	unit, err := f.svc.UnitForMember(ctx, "x2")
	if err != nil {
		t.Fatalf("UnitForMember() err=%v", err)
	}
	if !unit.IsCouple() || !unit.Contains("x1") {
		t.Fatalf("unaffiliated couple not resolved: %v", unit.MemberIDs())
	}

	_, err = f.svc.UnitForMember(ctx, "nobody")
	requireAppError(t, err, 404, "MEMBER_NOT_FOUND")
}
