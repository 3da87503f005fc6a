package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mfc-unidade/treasury-api/internal/ports/out/idempotency"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// idempotent runs handle at most once per (operator, key, route, payload).
//
//   - Replay if same operator+key+route+bodyHash
//   - Reject if same operator+key+route with different bodyHash (409)
//
// canon is the normalized request (path IDs plus decoded body) the hash is taken over.
// Only 2xx responses are stored; errors are re-evaluated on retry.
func (s *Server) idempotent(w http.ResponseWriter, r *http.Request, route string, canon any, handle func() (int, any, error)) {
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" {
		validationFailed(w, r, IdempotencyKeyHeader, "header is required")
		return
	}
	if len(key) > 255 {
		validationFailed(w, r, IdempotencyKeyHeader, "must be at most 255 characters")
		return
	}
	bodyHash, err := hashCanonical(canon)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	op, _ := OperatorFromContext(ctx)

	metaFP := idempotency.Fingerprint{
		Key:      idempotency.Key(key),
		Operator: op,
		Method:   r.Method,
		Route:    route,
		BodyHash: "",
	}
	respFP := metaFP
	respFP.BodyHash = bodyHash

	if s.Idem != nil {
		if meta, ok, err := s.Idem.Get(ctx, metaFP); err != nil {
			s.fail(w, r, err)
			return
		} else if ok {
			if string(meta.Body) != bodyHash {
				writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
				return
			}
		} else if err := s.Idem.Put(ctx, metaFP, idempotency.Record{
			StatusCode:  0,
			ContentType: "text/plain",
			Body:        []byte(bodyHash),
			CreatedAt:   s.now(),
		}); err != nil {
			s.fail(w, r, err)
			return
		}

		if rec, ok, err := s.Idem.Get(ctx, respFP); err != nil {
			s.fail(w, r, err)
			return
		} else if ok && rec.StatusCode >= 200 && rec.StatusCode < 300 {
			w.Header().Set("Content-Type", rec.ContentType)
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	status, resp, err := handle()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b = append(b, '\n')
	if s.Idem != nil {
		// Store successful response for replay. A failed write only costs the replay.
		if err := s.Idem.Put(ctx, respFP, idempotency.Record{
			StatusCode:  status,
			ContentType: "application/json",
			Body:        b,
			CreatedAt:   s.now(),
		}); err != nil {
			s.Log.WarnContext(ctx, "idempotency store write failed", "route", route, "error", err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func hashCanonical(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
