package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	eventrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/eventrepo"
	idempotencyport "github.com/mfc-unidade/treasury-api/internal/ports/out/idempotency"
	memberrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
	paymentrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/paymentrepo"
	salerepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/salerepo"
	teamrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

type CleanupFunc = func()

type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)
type TeamRepoFactory func(t *testing.T) (teamrepoport.Repository, CleanupFunc)
type PaymentRepoFactory func(t *testing.T) (paymentrepoport.Repository, CleanupFunc)
type EventRepoFactory func(t *testing.T) (eventrepoport.Repository, CleanupFunc)
type SaleRepoFactory func(t *testing.T) (salerepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func open[T any](t *testing.T, f func(t *testing.T) (T, CleanupFunc)) T {
	t.Helper()
	v, cleanup := f(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return v
}

func newID() string { return uuid.NewString() }

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()
	store := open(t, newStore)

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + newID()),
		Operator: domain.OperatorID("op-1"),
		Method:   "POST",
		Route:    "/members/{memberId}/payments",
		BodyHash: "abc",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get on empty store ok=%v err=%v, want miss", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"payments":[]}`),
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != string(rec.Body) || got.ContentType != rec.ContentType || got.StatusCode != rec.StatusCode {
		t.Fatalf("unexpected record: %+v", got)
	}

	// A different body hash is a different fingerprint.
	other := fp
	other.BodyHash = "def"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get(other) ok=%v err=%v, want miss", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"payments":[1]}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != string(rec2.Body) {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func RunTeamRepo(t *testing.T, newRepo TeamRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	now := time.Unix(1000, 0).UTC()
	a := domain.Team{ID: domain.TeamID(newID()), Name: "zz Equipe Norte " + newID(), City: "Recife", CreatedAt: now}
	b := domain.Team{ID: domain.TeamID(newID()), Name: "ZZ Equipe Jovem " + newID(), City: "Recife", IsYouth: true, CreatedAt: now}
	for _, tm := range []domain.Team{a, b} {
		if err := repo.Create(ctx, tm); err != nil {
			t.Fatalf("Create %s: %v", tm.Name, err)
		}
	}
	if err := repo.Create(ctx, a); !errors.Is(err, teamrepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want %v", err, teamrepoport.ErrAlreadyExists)
	}

	got, err := repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != b.Name || !got.IsYouth || got.City != "Recife" {
		t.Fatalf("GetByID=%+v, want %+v", got, b)
	}
	if _, err := repo.GetByID(ctx, domain.TeamID(newID())); !errors.Is(err, teamrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v, want %v", err, teamrepoport.ErrNotFound)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// Case-insensitive name ordering: "ZZ Equipe Jovem" sorts before "zz Equipe Norte".
	ia, ib := -1, -1
	for i, tm := range list {
		switch tm.ID {
		case a.ID:
			ia = i
		case b.ID:
			ib = i
		}
	}
	if ia < 0 || ib < 0 || ib > ia {
		t.Fatalf("unexpected ordering: a=%d b=%d", ia, ib)
	}
}

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	teamID := domain.TeamID(newID())
	base := time.Unix(1000, 0).UTC()
	dob := time.Date(1979, 8, 20, 0, 0, 0, 0, time.UTC)
	joined := time.Date(2010, 3, 1, 0, 0, 0, 0, time.UTC)

	a := domain.Member{
		ID:          domain.MemberID(newID()),
		DisplayName: "Ana Souza",
		Nickname:    "Aninha",
		SpouseName:  "Bruno Lima",
		TeamID:      teamID,
		Status:      domain.MemberStatusActive,
		Gender:      domain.GenderFemale,
		DateOfBirth: &dob,
		JoinedAt:    &joined,
		CreatedAt:   base.Add(time.Second),
		UpdatedAt:   base.Add(time.Second),
	}
	b := domain.Member{
		ID:          domain.MemberID(newID()),
		DisplayName: "Bruno Lima",
		SpouseName:  "Ana Souza",
		TeamID:      teamID,
		Status:      domain.MemberStatusActive,
		Gender:      domain.GenderMale,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	for _, m := range []domain.Member{a, b} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.DisplayName, err)
		}
	}
	if err := repo.Create(ctx, a); !errors.Is(err, memberrepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want %v", err, memberrepoport.ErrAlreadyExists)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Nickname != "Aninha" || got.SpouseName != "Bruno Lima" || got.Gender != domain.GenderFemale {
		t.Fatalf("GetByID=%+v", got)
	}
	if got.DateOfBirth == nil || !got.DateOfBirth.Equal(dob) || got.JoinedAt == nil || !got.JoinedAt.Equal(joined) {
		t.Fatalf("dates not round-tripped: dob=%v joined=%v", got.DateOfBirth, got.JoinedAt)
	}
	if _, err := repo.GetByID(ctx, domain.MemberID(newID())); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v, want %v", err, memberrepoport.ErrNotFound)
	}

	// Registration order: b was created first.
	byTeam, err := repo.ListByTeam(ctx, teamID)
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if len(byTeam) != 2 || byTeam[0].ID != b.ID || byTeam[1].ID != a.ID {
		t.Fatalf("unexpected ListByTeam: %#v", byTeam)
	}

	// Update.
	got.Nickname = "Ana"
	got.Status = domain.MemberStatusInactive
	got.UpdatedAt = base.Add(time.Hour)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, a.ID)
	if got.Nickname != "Ana" || got.Status != domain.MemberStatusInactive {
		t.Fatalf("Update not applied: %+v", got)
	}
	if err := repo.Update(ctx, domain.Member{ID: domain.MemberID(newID())}); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Update missing err=%v, want %v", err, memberrepoport.ErrNotFound)
	}

	// Toggle is all-or-nothing.
	if err := repo.SetPaymentInactive(ctx, []domain.MemberID{a.ID, domain.MemberID(newID())}, true, base); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("SetPaymentInactive with missing id err=%v, want %v", err, memberrepoport.ErrNotFound)
	}
	if got, _ := repo.GetByID(ctx, a.ID); got.PaymentInactive {
		t.Fatalf("partial toggle applied")
	}
	if err := repo.SetPaymentInactive(ctx, []domain.MemberID{a.ID, b.ID}, true, base.Add(2*time.Hour)); err != nil {
		t.Fatalf("SetPaymentInactive: %v", err)
	}
	for _, id := range []domain.MemberID{a.ID, b.ID} {
		if got, _ := repo.GetByID(ctx, id); !got.PaymentInactive {
			t.Fatalf("member %s not flagged", id)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := 0
	for _, m := range all {
		if m.ID == a.ID || m.ID == b.ID {
			seen++
		}
	}
	if seen != 2 {
		t.Fatalf("List missing seeded members (saw %d)", seen)
	}
}

// RunPaymentRepo needs a member repo because durable adapters enforce member references.
func RunPaymentRepo(t *testing.T, newMemberRepo MemberRepoFactory, newRepo PaymentRepoFactory) {
	t.Helper()
	ctx := context.Background()
	members := open(t, newMemberRepo)
	repo := open(t, newRepo)

	teamID := domain.TeamID(newID())
	base := time.Unix(5000, 0).UTC()
	m1 := domain.Member{ID: domain.MemberID(newID()), DisplayName: "Carla", TeamID: teamID, Status: domain.MemberStatusActive, CreatedAt: base, UpdatedAt: base}
	m2 := domain.Member{ID: domain.MemberID(newID()), DisplayName: "Davi", TeamID: teamID, Status: domain.MemberStatusActive, CreatedAt: base, UpdatedAt: base}
	for _, m := range []domain.Member{m1, m2} {
		if err := members.Create(ctx, m); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}

	march := domain.RefMonth{Month: 3, Year: 2024}
	pay := func(m domain.Member, month domain.RefMonth, status domain.PaymentStatus, at time.Time) domain.DuesPayment {
		return domain.DuesPayment{
			ID:         domain.PaymentID(newID()),
			MemberID:   m.ID,
			TeamID:     m.TeamID,
			Amount:     decimal.RequireFromString("7.50"),
			PaidOn:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			Month:      month,
			Status:     status,
			RecordedBy: "op-1",
			CreatedAt:  at,
		}
	}

	if err := repo.Append(ctx, []domain.DuesPayment{
		pay(m1, march, domain.PaymentStatusPaid, base),
		pay(m2, march, domain.PaymentStatusPaid, base),
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Second settlement for the same member-month is rejected, and the batch is atomic.
	err := repo.Append(ctx, []domain.DuesPayment{
		pay(m1, domain.RefMonth{Month: 4, Year: 2024}, domain.PaymentStatusPaid, base.Add(time.Minute)),
		pay(m2, march, domain.PaymentStatusExempt, base.Add(time.Minute)),
	})
	if !errors.Is(err, paymentrepoport.ErrAlreadySettled) {
		t.Fatalf("Append duplicate settlement err=%v, want %v", err, paymentrepoport.ErrAlreadySettled)
	}
	got, err := repo.ListByMembers(ctx, []domain.MemberID{m1.ID})
	if err != nil {
		t.Fatalf("ListByMembers: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rejected batch partially applied: %d records", len(got))
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("7.50")) || got[0].Month != march || got[0].RecordedBy != "op-1" {
		t.Fatalf("record not round-tripped: %+v", got[0])
	}

	// Pending records never block a later settlement.
	april := domain.RefMonth{Month: 4, Year: 2024}
	if err := repo.Append(ctx, []domain.DuesPayment{pay(m1, april, domain.PaymentStatusPending, base.Add(2*time.Minute))}); err != nil {
		t.Fatalf("Append pending: %v", err)
	}
	if err := repo.Append(ctx, []domain.DuesPayment{pay(m1, april, domain.PaymentStatusPaid, base.Add(3*time.Minute))}); err != nil {
		t.Fatalf("Append after pending: %v", err)
	}

	recent, err := repo.ListRecentByTeam(ctx, teamID, 2)
	if err != nil {
		t.Fatalf("ListRecentByTeam: %v", err)
	}
	if len(recent) != 2 || !recent[0].CreatedAt.Equal(base.Add(3*time.Minute)) {
		t.Fatalf("unexpected recent: %#v", recent)
	}

	year, err := repo.ListByYear(ctx, teamID, 2024)
	if err != nil {
		t.Fatalf("ListByYear: %v", err)
	}
	if len(year) != 4 {
		t.Fatalf("ListByYear len=%d, want 4", len(year))
	}
	none, err := repo.ListByYear(ctx, teamID, 2023)
	if err != nil || len(none) != 0 {
		t.Fatalf("ListByYear(2023)=%v err=%v, want empty", none, err)
	}
}

func RunEventRepo(t *testing.T, newRepo EventRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	base := time.Unix(9000, 0).UTC()
	qty := 200
	price := decimal.RequireFromString("25.00")
	teamA := domain.TeamID(newID())
	teamB := domain.TeamID(newID())
	older := domain.Event{
		ID:        domain.EventID(newID()),
		Name:      "Festa Junina",
		Date:      time.Date(2099, 6, 20, 0, 0, 0, 0, time.UTC),
		Goal:      decimal.RequireFromString("1000"),
		IsActive:  true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	newer := domain.Event{
		ID:              domain.EventID(newID()),
		Name:            "Jantar Dançante",
		Date:            time.Date(2099, 9, 14, 0, 0, 0, 0, time.UTC),
		Goal:            decimal.RequireFromString("5000"),
		TicketQuantity:  &qty,
		TicketPrice:     &price,
		IsActive:        true,
		ShowOnDashboard: true,
		Quotas: []domain.EventTeamQuota{
			{TeamID: teamA, Target: decimal.RequireFromString("1000")},
			{TeamID: teamB, Target: decimal.RequireFromString("1500")},
		},
		CreatedAt: base,
		UpdatedAt: base,
	}
	for _, e := range []domain.Event{older, newer} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create %s: %v", e.Name, err)
		}
	}
	if err := repo.Create(ctx, older); !errors.Is(err, eventrepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want %v", err, eventrepoport.ErrAlreadyExists)
	}

	got, err := repo.GetByID(ctx, newer.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TicketQuantity == nil || *got.TicketQuantity != 200 || got.TicketPrice == nil || !got.TicketPrice.Equal(price) {
		t.Fatalf("ticket fields not round-tripped: %+v", got)
	}
	if !got.QuotaFor(teamB).Equal(decimal.RequireFromString("1500")) || len(got.Quotas) != 2 {
		t.Fatalf("quotas not round-tripped: %+v", got.Quotas)
	}
	if _, err := repo.GetByID(ctx, domain.EventID(newID())); !errors.Is(err, eventrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v, want %v", err, eventrepoport.ErrNotFound)
	}

	// Expenses append in order; Save never drops them.
	for i, amt := range []string{"300.00", "150.50"} {
		x := domain.Expense{ID: domain.ExpenseID(newID()), Description: "item", Amount: decimal.RequireFromString(amt), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.AppendExpense(ctx, newer.ID, x); err != nil {
			t.Fatalf("AppendExpense: %v", err)
		}
	}
	if err := repo.AppendExpense(ctx, domain.EventID(newID()), domain.Expense{ID: domain.ExpenseID(newID())}); !errors.Is(err, eventrepoport.ErrNotFound) {
		t.Fatalf("AppendExpense missing err=%v, want %v", err, eventrepoport.ErrNotFound)
	}

	got, _ = repo.GetByID(ctx, newer.ID)
	got.IsActive = false
	got.Quotas = []domain.EventTeamQuota{{TeamID: teamA, Target: decimal.RequireFromString("2000")}}
	got.Expenses = nil
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = repo.GetByID(ctx, newer.ID)
	if got.IsActive || len(got.Quotas) != 1 || !got.QuotaFor(teamA).Equal(decimal.RequireFromString("2000")) {
		t.Fatalf("Save not applied: %+v", got)
	}
	if len(got.Expenses) != 2 || !got.TotalCost().Equal(decimal.RequireFromString("450.50")) {
		t.Fatalf("expenses=%+v, want 2 totaling 450.50", got.Expenses)
	}
	if err := repo.Save(ctx, domain.Event{ID: domain.EventID(newID())}); !errors.Is(err, eventrepoport.ErrNotFound) {
		t.Fatalf("Save missing err=%v, want %v", err, eventrepoport.ErrNotFound)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	io, in := -1, -1
	for i, e := range list {
		switch e.ID {
		case older.ID:
			io = i
		case newer.ID:
			in = i
		}
	}
	if io < 0 || in < 0 || in > io {
		t.Fatalf("expected most recent date first: newer=%d older=%d", in, io)
	}
}

// RunEventAndSaleRepos seeds an event before exercising the sale log.
func RunEventAndSaleRepos(t *testing.T, newEventRepo EventRepoFactory, newSaleRepo SaleRepoFactory) {
	t.Helper()
	ctx := context.Background()
	events := open(t, newEventRepo)
	sales := open(t, newSaleRepo)

	base := time.Unix(12000, 0).UTC()
	ev := domain.Event{
		ID:        domain.EventID(newID()),
		Name:      "Bazar",
		Date:      time.Date(2099, 11, 2, 0, 0, 0, 0, time.UTC),
		Goal:      decimal.RequireFromString("800"),
		IsActive:  true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	if err := events.Create(ctx, ev); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	teamID := domain.TeamID(newID())
	mk := func(amount string, status domain.SaleStatus, at time.Time) domain.EventSale {
		return domain.EventSale{
			ID:        domain.SaleID(newID()),
			EventID:   ev.ID,
			TeamID:    teamID,
			MemberID:  domain.MemberID(newID()),
			BuyerName: "Comprador",
			Amount:    decimal.RequireFromString(amount),
			Status:    status,
			SoldOn:    time.Date(2099, 10, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt: at,
		}
	}
	second := mk("50.00", domain.SaleStatusPending, base.Add(time.Minute))
	first := mk("25.00", domain.SaleStatusPaid, base)
	for _, s := range []domain.EventSale{second, first} {
		if err := sales.Append(ctx, s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := sales.Append(ctx, first); !errors.Is(err, salerepoport.ErrAlreadyExists) {
		t.Fatalf("Append duplicate err=%v, want %v", err, salerepoport.ErrAlreadyExists)
	}

	got, err := sales.ListByEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("unexpected ordering: %#v", got)
	}
	if got[1].Status != domain.SaleStatusPending || !got[1].Amount.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("sale not round-tripped: %+v", got[1])
	}

	empty, err := sales.ListByEvent(ctx, domain.EventID(newID()))
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListByEvent(unknown)=%v err=%v, want empty", empty, err)
	}
}
