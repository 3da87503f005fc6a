package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mfc-unidade/treasury-api/internal/adapters/httpapi"
	memclock "github.com/mfc-unidade/treasury-api/internal/adapters/memory/clock"
	memeventbus "github.com/mfc-unidade/treasury-api/internal/adapters/memory/eventbus"
	memeventrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/eventrepo"
	memidempotency "github.com/mfc-unidade/treasury-api/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/memberrepo"
	mempaymentrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/paymentrepo"
	memsalerepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/salerepo"
	memteamrepo "github.com/mfc-unidade/treasury-api/internal/adapters/memory/teamrepo"
	pgeventrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/eventrepo"
	pgidempotency "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/idempotency"
	pgmemberrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/memberrepo"
	pgpaymentrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/paymentrepo"
	pgsalerepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/salerepo"
	pgteamrepo "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/teamrepo"
	postgres_testutil "github.com/mfc-unidade/treasury-api/internal/adapters/postgres/testutil"
	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/app/fundraising"
	"github.com/mfc-unidade/treasury-api/internal/app/members"
	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
	eventrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/eventrepo"
	idempotencyport "github.com/mfc-unidade/treasury-api/internal/ports/out/idempotency"
	memberrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
	paymentrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/paymentrepo"
	salerepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/salerepo"
	teamrepoport "github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	bus     *memeventbus.Recorder
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	var (
		memberRepo  memberrepoport.Repository
		teamRepo    teamrepoport.Repository
		paymentRepo paymentrepoport.Repository
		eventRepo   eventrepoport.Repository
		saleRepo    salerepoport.Repository
		idemStore   idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		memberRepo = pgmemberrepo.NewRepo(pool)
		teamRepo = pgteamrepo.NewRepo(pool)
		paymentRepo = pgpaymentrepo.NewRepo(pool)
		eventRepo = pgeventrepo.NewRepo(pool)
		saleRepo = pgsalerepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, time.Hour, clk.Now)
	case backendMemory:
		memberRepo = memmemberrepo.NewRepo()
		teamRepo = memteamrepo.NewRepo()
		paymentRepo = mempaymentrepo.NewRepo()
		eventRepo = memeventrepo.NewRepo()
		saleRepo = memsalerepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	bus := memeventbus.NewRecorder()
	memberSvc := members.NewService(memberRepo, teamRepo, clk)
	duesSvc := dues.NewService(memberRepo, teamRepo, paymentRepo, clk)
	duesSvc.Bus = bus
	fundSvc := fundraising.NewService(eventRepo, saleRepo, memberRepo, teamRepo, clk)
	fundSvc.Bus = bus
	repSvc := reporting.NewService(duesSvc, memberRepo, teamRepo, clk)
	repSvc.Bus = bus

	api := httpapi.NewServer(memberSvc, duesSvc, fundSvc, repSvc, idemStore)
	api.Now = clk.Now

	// Empty default operator: requests MUST send X-Operator-ID, allowing auth-failure coverage.
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		OperatorMiddleware: httpapi.NewOperatorMiddleware(""),
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		bus:     bus,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

type reqOpts struct {
	operator       string
	idempotencyKey string
}

func (s *testServer) doJSON(t *testing.T, method string, path string, opts reqOpts, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if opts.operator != "" {
		req.Header.Set(httpapi.OperatorHeader, opts.operator)
	}
	if opts.idempotencyKey != "" {
		req.Header.Set(httpapi.IdempotencyKeyHeader, opts.idempotencyKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestId string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}

// uniqueName keeps team names distinct when the postgres database is shared across runs.
func uniqueName(prefix string) string {
	return prefix + " " + uuid.NewString()[:8]
}
