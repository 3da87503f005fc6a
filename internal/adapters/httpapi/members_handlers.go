package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/mfc-unidade/treasury-api/internal/app/members"
	"github.com/mfc-unidade/treasury-api/internal/domain"
)

func (s *Server) searchMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := domain.MemberStatus(strings.ToUpper(strings.TrimSpace(q.Get("status"))))
	ms, err := s.Members.SearchMembers(r.Context(), q.Get("q"), status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, memberFromDomain(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) registerMember(w http.ResponseWriter, r *http.Request) {
	var body RegisterMemberRequest
	if !decodeBody(w, r, &body) {
		return
	}
	m, err := s.Members.RegisterMember(r.Context(), members.RegisterMemberInput{
		DisplayName: body.DisplayName,
		Nickname:    body.Nickname,
		SpouseName:  body.SpouseName,
		TeamID:      domain.TeamID(body.TeamId),
		Status:      domain.MemberStatus(body.Status),
		Gender:      domain.Gender(body.Gender),
		DateOfBirth: datePtr(body.DateOfBirth),
		JoinedAt:    datePtr(body.JoinedAt),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"member": memberFromDomain(m)})
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.Members.GetMember(r.Context(), memberIDParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member": memberFromDomain(m)})
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	var body UpdateMemberRequest
	if !decodeBody(w, r, &body) {
		return
	}
	m, err := s.Members.UpdateMemberProfile(r.Context(), memberIDParam(r), updateMemberInputFromRequest(body))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member": memberFromDomain(m)})
}

func updateMemberInputFromRequest(b UpdateMemberRequest) members.UpdateMemberProfileInput {
	return members.UpdateMemberProfileInput{
		DisplayName: optional(b.DisplayName, func(v string) string { return v }),
		Nickname:    optional(b.Nickname, func(v string) string { return v }),
		SpouseName:  optional(b.SpouseName, func(v string) string { return v }),
		TeamID:      optional(b.TeamId, func(v string) domain.TeamID { return domain.TeamID(v) }),
		Status:      optional(b.Status, func(v string) domain.MemberStatus { return domain.MemberStatus(v) }),
		Gender:      optional(b.Gender, func(v string) domain.Gender { return domain.Gender(v) }),
		DateOfBirth: optional(b.DateOfBirth, func(v openapi_types.Date) time.Time { return v.Time }),
		JoinedAt:    optional(b.JoinedAt, func(v openapi_types.Date) time.Time { return v.Time }),
	}
}

// optional maps a JSON tri-state onto the app layer's Optional.
func optional[T, U any](n nullable.Nullable[T], conv func(T) U) members.Optional[U] {
	switch {
	case !n.IsSpecified():
		return members.Unspecified[U]()
	case n.IsNull():
		return members.Null[U]()
	default:
		return members.Some(conv(n.MustGet()))
	}
}

func datePtr(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
