package router

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/envelope-app/segora-backend/common"
	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/log"
)

const maxJSONBody = 1 << 20

// parseJSON decodes the request body into v.
func parseJSON(r *http.Request, v interface{}) *HTTPError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return &HTTPError{
			IError:    err,
			Level:     1,
			Error:     "invalid JSON body",
			Status:    http.StatusBadRequest,
			ErrorCode: ErrParsing,
		}
	}
	return nil
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) *HTTPError {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return handleJSONError(err)
	}
	return nil
}

func handleJSONError(err error) *HTTPError {
	return &HTTPError{
		ErrorCode: ErrInternal,
		IError:    err,
		Level:     3,
		Status:    http.StatusInternalServerError,
	}
}

// handleMissingDataError takes name of data that is missing or invalid and return *HTTPError
func handleMissingDataError(v string) *HTTPError {
	return &HTTPError{
		Level:     1,
		Error:     fmt.Sprintf("%s is required", v),
		Status:    http.StatusBadRequest,
		ErrorCode: ErrInvalidData,
	}
}

func invalidData(err error) *HTTPError {
	return &HTTPError{
		IError:    err,
		Level:     1,
		Error:     err.Error(),
		Status:    http.StatusBadRequest,
		ErrorCode: ErrInvalidData,
	}
}

func forbidden(msg string) *HTTPError {
	return &HTTPError{
		Level:     1,
		Error:     msg,
		Status:    http.StatusForbidden,
		ErrorCode: ErrForbidden,
	}
}

func unauthorized(err error) *HTTPError {
	return &HTTPError{
		IError:    err,
		Level:     1,
		Error:     "Unauthorized",
		Status:    http.StatusUnauthorized,
		ErrorCode: ErrUnauthorized,
	}
}

// storeError maps a store failure to a response. what names the resource
// in 404 messages.
func storeError(err error, what string) *HTTPError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &HTTPError{
			IError:    err,
			Level:     1,
			Error:     what + " not found",
			Status:    http.StatusNotFound,
			ErrorCode: ErrNotFound,
		}
	case errors.Is(err, db.ErrConflict):
		return &HTTPError{
			IError:    err,
			Level:     1,
			Error:     err.Error(),
			Status:    http.StatusConflict,
			ErrorCode: ErrConflict,
		}
	}
	return &HTTPError{
		IError:    err,
		Level:     3,
		Error:     "server error",
		Status:    http.StatusInternalServerError,
		ErrorCode: ErrInternal,
	}
}

// pathID reads a UUID path variable. Anything else cannot exist, so it is a
// 404 rather than a database round trip.
func pathID(r *http.Request, name, what string) (string, *HTTPError) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return "", storeError(db.ErrNotFound, what)
	}
	return id.String(), nil
}

// bearerToken reads the session token from the Authorization header, or
// from the token query parameter for WebSocket clients that cannot set
// headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// authenticate resolves the caller from the session token. With required
// unset an anonymous request passes through, but a bad token never does.
func authenticate(required bool) Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		token := bearerToken(r)
		if token == "" {
			if required {
				return unauthorized(errors.New("no session token"))
			}
			return nil
		}

		claims, err := rc.issuer.Parse(token)
		if err != nil {
			return unauthorized(err)
		}
		revoked, err := rc.cache.IsTokenRevoked(claims.ID)
		if err != nil {
			return storeError(err, "session")
		}
		if revoked {
			return unauthorized(errors.New("token revoked"))
		}

		rc.claims = claims
		rc.userID = claims.UserID()
		return nil
	}
}

// loadProfile fetches the caller's profile when there is a caller.
func loadProfile() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		if rc.userID == "" {
			return nil
		}
		p, err := rc.store.GetProfile(r.Context(), rc.userID)
		if err != nil {
			return storeError(err, "Profile")
		}
		rc.profile = p
		return nil
	}
}

// softProfile is loadProfile for read paths that must keep answering. A
// profile that cannot be read is logged and the request goes on without a
// campus.
func softProfile() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		if rc.userID == "" {
			return nil
		}
		p, err := rc.store.GetProfile(r.Context(), rc.userID)
		if err != nil {
			return &HTTPError{IError: fmt.Errorf("profile %s: %w", rc.userID, err), Level: 2}
		}
		rc.profile = p
		return nil
	}
}

// campus is the caller's campus, empty for anonymous requests.
func (rc *RouterContext) campus() string {
	if rc.profile == nil {
		return ""
	}
	return rc.profile.UniversityName
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info.Printf("%s %s %d %s %s\n", r.Method, r.URL.Path, rec.status, time.Since(start), common.GetIPAddr(r))
	})
}

// withCORS allows browser clients from origin, or from anywhere when origin
// is empty.
func withCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
