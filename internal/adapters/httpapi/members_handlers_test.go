package httpapi

import (
	"net/http"
	"testing"
)

func TestMembers_RegisterThenGet(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	teamID := a.createTeam(t, "Equipe Boa Viagem")
	id := a.registerMember(t, `{"displayName":"  Maria   Souza ","teamId":"`+teamID+`","gender":"FEMALE","dateOfBirth":"1980-03-10"}`)

	out := a.mustDo(t, http.StatusOK, http.MethodGet, "/members/"+id, "")
	if got := field(t, out, "member", "displayName"); got != "Maria Souza" {
		t.Fatalf("displayName=%v, want %q", got, "Maria Souza")
	}
	if got := field(t, out, "member", "status"); got != "ACTIVE" {
		t.Fatalf("status=%v, want ACTIVE", got)
	}
	if got := field(t, out, "member", "dateOfBirth"); got != "1980-03-10" {
		t.Fatalf("dateOfBirth=%v, want 1980-03-10", got)
	}
	if got := field(t, out, "member", "nickname"); got != nil {
		t.Fatalf("nickname=%v, want null", got)
	}

	roster := a.mustDo(t, http.StatusOK, http.MethodGet, "/teams/"+teamID+"/members", "")
	if n := len(roster["members"].([]any)); n != 1 {
		t.Fatalf("roster=%d, want 1", n)
	}
}

func TestMembers_Get_NotFound(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	requireErrorCode(t, a.do(t, http.MethodGet, "/members/missing", ""), http.StatusNotFound, "MEMBER_NOT_FOUND")
}

func TestMembers_Register_UnknownTeam_404(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	rec := a.do(t, http.MethodPost, "/members", `{"displayName":"Ana","teamId":"nope"}`)
	requireErrorCode(t, rec, http.StatusNotFound, "TEAM_NOT_FOUND")
}

func TestMembers_Patch_NullClearsAndOmittedKeeps(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	teamID := a.createTeam(t, "Equipe Olinda")
	id := a.registerMember(t, `{"displayName":"João","nickname":"Jota","spouseName":"Ana","teamId":"`+teamID+`"}`)

	out := a.mustDo(t, http.StatusOK, http.MethodPatch, "/members/"+id, `{"nickname":null,"gender":"MALE"}`)
	if got := field(t, out, "member", "nickname"); got != nil {
		t.Fatalf("nickname=%v, want null", got)
	}
	if got := field(t, out, "member", "spouseName"); got != "Ana" {
		t.Fatalf("spouseName=%v, want Ana", got)
	}
	if got := field(t, out, "member", "gender"); got != "MALE" {
		t.Fatalf("gender=%v, want MALE", got)
	}
	if got := field(t, out, "member", "teamId"); got != teamID {
		t.Fatalf("teamId=%v, want %s", got, teamID)
	}

	out = a.mustDo(t, http.StatusOK, http.MethodPatch, "/members/"+id, `{"teamId":null}`)
	if got := field(t, out, "member", "teamId"); got != nil {
		t.Fatalf("teamId=%v, want null", got)
	}
}

func TestMembers_Patch_InvalidStatus_422(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	id := a.registerMember(t, `{"displayName":"Carlos"}`)
	rec := a.do(t, http.MethodPatch, "/members/"+id, `{"status":"RETIRED"}`)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestMembers_Search(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.registerMember(t, `{"displayName":"Roberta Lima"}`)
	a.registerMember(t, `{"displayName":"Paulo","nickname":"Robertinho"}`)
	a.registerMember(t, `{"displayName":"Marcos"}`)

	out := a.mustDo(t, http.StatusOK, http.MethodGet, "/members?q=robert", "")
	if n := len(out["members"].([]any)); n != 2 {
		t.Fatalf("matches=%d, want 2", n)
	}
	requireErrorCode(t, a.do(t, http.MethodGet, "/members?q=ro", ""), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestMembers_ListByStatus(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.registerMember(t, `{"displayName":"Roberta Lima","status":"PENDING"}`)
	a.registerMember(t, `{"displayName":"Paulo"}`)
	a.registerMember(t, `{"displayName":"Marcos","status":"PENDING"}`)

	out := a.mustDo(t, http.StatusOK, http.MethodGet, "/members?status=pending", "")
	ms := out["members"].([]any)
	if len(ms) != 2 {
		t.Fatalf("pending=%d, want 2", len(ms))
	}
	for _, m := range ms {
		if got := m.(map[string]any)["status"]; got != "PENDING" {
			t.Fatalf("status=%v, want PENDING", got)
		}
	}

	out = a.mustDo(t, http.StatusOK, http.MethodGet, "/members", "")
	if n := len(out["members"].([]any)); n != 3 {
		t.Fatalf("all=%d, want 3", n)
	}
	requireErrorCode(t, a.do(t, http.MethodGet, "/members?status=RETIRED", ""), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestTeams_CreateListAndDuplicate(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.createTeam(t, "Equipe B")
	a.createTeam(t, "Equipe A")
	requireErrorCode(t, a.do(t, http.MethodPost, "/teams", `{"name":"Equipe A"}`), http.StatusConflict, "TEAM_ALREADY_EXISTS")

	out := a.mustDo(t, http.StatusOK, http.MethodGet, "/teams", "")
	teams := out["teams"].([]any)
	if len(teams) != 2 {
		t.Fatalf("teams=%d, want 2", len(teams))
	}
	if got := teams[0].(map[string]any)["name"]; got != "Equipe A" {
		t.Fatalf("first team=%v, want Equipe A", got)
	}
}
