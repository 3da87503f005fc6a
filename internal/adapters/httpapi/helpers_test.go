package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memclock "github.com/mfc-unidade/treasury-api/internal/adapters/memory/clock"
	memeventbus "github.com/mfc-unidade/treasury-api/internal/adapters/memory/eventbus"
	memeventrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/eventrepo"
	memidempotency "github.com/mfc-unidade/treasury-api/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/memberrepo"
	mempaymentrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/paymentrepo"
	memsalerepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/salerepo"
	memteamrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/teamrepo"
	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/app/fundraising"
	"github.com/mfc-unidade/treasury-api/internal/app/members"
	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
)

type testAPI struct {
	h   http.Handler
	clk *memclock.ManualClock
	bus *memeventbus.Recorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	bus := memeventbus.NewRecorder()
	memberRepo := memmemberrepo.NewRepo()
	teamRepo := memteamrepo.NewRepo()

	memberSvc := members.NewService(memberRepo, teamRepo, clk)
	duesSvc := dues.NewService(memberRepo, teamRepo, mempaymentrepo.NewRepo(), clk)
	duesSvc.Bus = bus
	fundSvc := fundraising.NewService(memeventrepo.NewRepo(), memsalerepo.NewRepo(), memberRepo, teamRepo, clk)
	fundSvc.Bus = bus
	repSvc := reporting.NewService(duesSvc, memberRepo, teamRepo, clk)
	repSvc.Bus = bus

	api := NewServer(memberSvc, duesSvc, fundSvc, repSvc, memidempotency.NewStore())
	api.Now = clk.Now
	return &testAPI{h: NewRouter(api), clk: clk, bus: bus}
}

// do sends a request as operator "op-1" unless headers override it.
func (a *testAPI) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(OperatorHeader, "op-1")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) mustDo(t *testing.T, want int, method, path, body string, headers ...string) map[string]any {
	t.Helper()
	rec := a.do(t, method, path, body, headers...)
	if rec.Code != want {
		t.Fatalf("%s %s status=%d, want %d body=%s", method, path, rec.Code, want, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v body=%s", err, rec.Body.String())
	}
	return er
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d, want %d body=%s", rec.Code, status, rec.Body.String())
	}
	er := decodeError(t, rec)
	if er.Error.Code != code {
		t.Fatalf("code=%q, want %q", er.Error.Code, code)
	}
	return er
}

// field walks nested JSON objects by key.
func field(t *testing.T, v map[string]any, keys ...string) any {
	t.Helper()
	var cur any = v
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("field %v: %T is not an object", keys, cur)
		}
		cur = m[k]
	}
	return cur
}

func (a *testAPI) createTeam(t *testing.T, name string) string {
	t.Helper()
	out := a.mustDo(t, http.StatusCreated, http.MethodPost, "/teams", `{"name":"`+name+`","city":"Recife"}`)
	return field(t, out, "team", "teamId").(string)
}

func (a *testAPI) registerMember(t *testing.T, body string) string {
	t.Helper()
	out := a.mustDo(t, http.StatusCreated, http.MethodPost, "/members", body)
	a.clk.Advance(time.Second)
	return field(t, out, "member", "memberId").(string)
}
