package itest

import (
	"net/http"
	"testing"

	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventbus"
)

type idResponse struct {
	Team struct {
		TeamId string `json:"teamId"`
	} `json:"team"`
	Member struct {
		MemberId string `json:"memberId"`
	} `json:"member"`
	Event struct {
		EventId string `json:"eventId"`
	} `json:"event"`
}

type unitRow struct {
	Unit struct {
		Key        string `json:"key"`
		Kind       string `json:"kind"`
		MonthlyDue string `json:"monthlyDue"`
	} `json:"unit"`
	Paid          bool     `json:"paid"`
	PendingMonths []string `json:"pendingMonths"`
}

func TestLedger_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)
			op := reqOpts{operator: "itest|treasurer"}

			// Missing operator header => 401 with a request id.
			{
				status, body, hdr := srv.doJSON(t, http.MethodGet, "/teams", reqOpts{}, nil)
				requireErrorCode(t, status, body, http.StatusUnauthorized, "UNAUTHORIZED")
				requireHeaderPresent(t, hdr, "Content-Type")
				if got := mustUnmarshal[errorResponse](t, body); got.Error.RequestId == "" {
					t.Fatalf("expected requestId in error envelope")
				}
			}

			var teamID string
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/teams", op, map[string]any{"name": uniqueName("Equipe"), "city": "Recife"})
				requireStatus(t, status, body, http.StatusCreated)
				teamID = mustUnmarshal[idResponse](t, body).Team.TeamId
			}

			register := func(body map[string]any) string {
				t.Helper()
				body["teamId"] = teamID
				status, resp, _ := srv.doJSON(t, http.MethodPost, "/members", op, body)
				requireStatus(t, status, resp, http.StatusCreated)
				return mustUnmarshal[idResponse](t, resp).Member.MemberId
			}
			husband := register(map[string]any{"displayName": "João Silva", "spouseName": "Maria Silva"})
			register(map[string]any{"displayName": "Maria Silva", "spouseName": "João Silva"})
			solo := register(map[string]any{"displayName": "Pedro Alves"})

			// Scenario: nothing paid yet, every active unit owes January through June.
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/teams/"+teamID+"/dues?month=6/2024", op, nil)
				requireStatus(t, status, body, http.StatusOK)
				sheet := mustUnmarshal[struct {
					Units []unitRow `json:"units"`
				}](t, body)
				if len(sheet.Units) != 2 {
					t.Fatalf("units=%d want=2", len(sheet.Units))
				}
				for _, u := range sheet.Units {
					if len(u.PendingMonths) != 6 {
						t.Fatalf("unit %s pending=%v want 6 months", u.Unit.Key, u.PendingMonths)
					}
				}
			}

			// Launch for the couple; retry replays; a second key hits ALREADY_SETTLED.
			{
				launch := reqOpts{operator: op.operator, idempotencyKey: "itest-launch-" + teamID}
				status, body, _ := srv.doJSON(t, http.MethodPost, "/members/"+husband+"/payments", launch, map[string]any{"month": "6/2024"})
				requireStatus(t, status, body, http.StatusCreated)

				status2, body2, hdr := srv.doJSON(t, http.MethodPost, "/members/"+husband+"/payments", launch, map[string]any{"month": "6/2024"})
				requireStatus(t, status2, body2, http.StatusCreated)
				if string(body2) != string(body) {
					t.Fatalf("replay mismatch:\n%s\nvs\n%s", body2, body)
				}
				requireHeaderPresent(t, hdr, "Idempotent-Replayed")

				other := reqOpts{operator: op.operator, idempotencyKey: "itest-launch-2-" + teamID}
				status3, body3, _ := srv.doJSON(t, http.MethodPost, "/members/"+husband+"/payments", other, map[string]any{"month": "6/2024"})
				requireErrorCode(t, status3, body3, http.StatusConflict, "ALREADY_SETTLED")
			}

			// Summary: one of two active units paid.
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/teams/"+teamID+"/summary?month=6/2024", op, nil)
				requireStatus(t, status, body, http.StatusOK)
				sum := mustUnmarshal[struct {
					PaidUnits      int    `json:"paidUnits"`
					PendingUnits   int    `json:"pendingUnits"`
					CollectionRate string `json:"collectionRate"`
				}](t, body)
				if sum.PaidUnits != 1 || sum.PendingUnits != 1 || sum.CollectionRate != "50.00" {
					t.Fatalf("summary=%+v", sum)
				}
			}

			// Pausing the single unit removes it from the pending count.
			{
				status, body, _ := srv.doJSON(t, http.MethodPut, "/members/"+solo+"/unit/active", op, map[string]any{"active": false})
				requireStatus(t, status, body, http.StatusOK)

				status, body, _ = srv.doJSON(t, http.MethodGet, "/members/"+solo+"/arrears?upto=6/2024", op, nil)
				requireStatus(t, status, body, http.StatusOK)
				if got := mustUnmarshal[struct {
					Count int `json:"count"`
				}](t, body); got.Count != 0 {
					t.Fatalf("paused arrears=%d want=0", got.Count)
				}
			}

			if n := len(srv.bus.Topic(eventbus.TopicPaymentLaunched)); n != 1 {
				t.Fatalf("payment events=%d want=1", n)
			}
			if n := len(srv.bus.Topic(eventbus.TopicUnitToggled)); n != 1 {
				t.Fatalf("toggle events=%d want=1", n)
			}
		})
	}
}

func TestFundraising_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)
			op := reqOpts{operator: "itest|treasurer"}

			status, body, _ := srv.doJSON(t, http.MethodPost, "/teams", op, map[string]any{"name": uniqueName("Equipe")})
			requireStatus(t, status, body, http.StatusCreated)
			teamID := mustUnmarshal[idResponse](t, body).Team.TeamId

			status, body, _ = srv.doJSON(t, http.MethodPost, "/members", op, map[string]any{"displayName": "Rita", "teamId": teamID})
			requireStatus(t, status, body, http.StatusCreated)
			seller := mustUnmarshal[idResponse](t, body).Member.MemberId

			status, body, _ = srv.doJSON(t, http.MethodPost, "/events", op, map[string]any{
				"name": "Feijoada", "date": "2024-07-20", "goal": "1000",
			})
			requireStatus(t, status, body, http.StatusCreated)
			eventID := mustUnmarshal[idResponse](t, body).Event.EventId

			status, body, _ = srv.doJSON(t, http.MethodPut, "/events/"+eventID+"/quotas/"+teamID, op, map[string]any{"target": "200"})
			requireStatus(t, status, body, http.StatusOK)

			sale := map[string]any{"teamId": teamID, "memberId": seller, "buyerName": "Sr. Paulo", "amount": "250"}
			saleOpts := reqOpts{operator: op.operator, idempotencyKey: "itest-sale-" + eventID}
			status, body, _ = srv.doJSON(t, http.MethodPost, "/events/"+eventID+"/sales", saleOpts, sale)
			requireStatus(t, status, body, http.StatusCreated)

			// Same key, different amount.
			sale["amount"] = "251"
			status, body, _ = srv.doJSON(t, http.MethodPost, "/events/"+eventID+"/sales", saleOpts, sale)
			requireErrorCode(t, status, body, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

			status, body, _ = srv.doJSON(t, http.MethodGet, "/events/"+eventID+"/teams/"+teamID+"/stats", op, nil)
			requireStatus(t, status, body, http.StatusOK)
			if got := mustUnmarshal[struct {
				ProgressPct string `json:"progressPct"`
			}](t, body); got.ProgressPct != "125.00" {
				t.Fatalf("team progress=%s want=125.00", got.ProgressPct)
			}

			status, body, _ = srv.doJSON(t, http.MethodGet, "/events/"+eventID+"/stats", op, nil)
			requireStatus(t, status, body, http.StatusOK)
			if got := mustUnmarshal[struct {
				ProgressPct string `json:"progressPct"`
				SaleCount   int    `json:"saleCount"`
			}](t, body); got.ProgressPct != "25.00" || got.SaleCount != 1 {
				t.Fatalf("event stats=%+v", got)
			}
		})
	}
}
