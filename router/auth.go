package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/envelope-app/segora-backend/auth"
	"github.com/envelope-app/segora-backend/common"
	"github.com/envelope-app/segora-backend/db"
)

func emailTaken() *HTTPError {
	return &HTTPError{
		Level:     1,
		Error:     "Email already registered",
		Status:    http.StatusConflict,
		ErrorCode: ErrConflict,
	}
}

func badCredentials(err error) *HTTPError {
	return &HTTPError{
		IError:    err,
		Level:     1,
		Error:     "Invalid email or password",
		Status:    http.StatusUnauthorized,
		ErrorCode: ErrUnauthorized,
	}
}

// Register creates an account and its profile.
func Register() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var reg db.Registration
		if e := parseJSON(r, &reg); e != nil {
			return e
		}
		reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
		reg.Name = strings.TrimSpace(reg.Name)
		if reg.Email == "" || reg.Password == "" || reg.Name == "" {
			return &HTTPError{
				Level:     1,
				Error:     "Email, password and name are required",
				Status:    http.StatusBadRequest,
				ErrorCode: ErrInvalidData,
			}
		}

		if reg.UniversityID != "" {
			campus, ok := common.LookupCampus(reg.UniversityID)
			if !ok {
				return invalidData(errors.New("unknown university_id"))
			}
			if reg.UniversityName == "" {
				reg.UniversityName = campus.Name
			}
			if reg.UniversityShortName == "" {
				reg.UniversityShortName = campus.Name
			}
		}

		exists, err := rc.store.EmailExists(r.Context(), reg.Email)
		if err != nil {
			return storeError(err, "User")
		}
		if exists {
			return emailTaken()
		}

		hash, err := auth.HashPassword(reg.Password)
		if err != nil {
			return &HTTPError{
				IError:    err,
				Level:     3,
				Status:    http.StatusInternalServerError,
				ErrorCode: ErrInternal,
			}
		}

		id, err := rc.store.Register(r.Context(), reg, hash)
		if err != nil {
			if errors.Is(err, db.ErrEmailTaken) {
				return emailTaken()
			}
			return storeError(err, "User")
		}
		return writeJSON(w, http.StatusCreated, &RegisterResponse{Success: true, UserID: id})
	}
}

// Login checks credentials and issues a session token.
func Login() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var req LoginRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || req.Password == "" {
			return handleMissingDataError("email and password")
		}

		creds, err := rc.store.CredentialsByEmail(r.Context(), email)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return badCredentials(err)
			}
			return storeError(err, "User")
		}
		if err := auth.CheckPassword(creds.EncryptedPassword, req.Password); err != nil {
			return badCredentials(err)
		}

		token, _, err := rc.issuer.Issue(creds.UserID, creds.Email)
		if err != nil {
			return &HTTPError{
				IError:    err,
				Level:     3,
				Status:    http.StatusInternalServerError,
				ErrorCode: ErrInternal,
			}
		}

		profile, err := rc.store.GetProfile(r.Context(), creds.UserID)
		if err != nil {
			return storeError(err, "Profile")
		}
		return writeJSON(w, http.StatusOK, &LoginResponse{Token: token, Profile: profile})
	}
}

// Logout revokes the presented token for the rest of its lifetime.
func Logout() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var ttl time.Duration
		if rc.claims.ExpiresAt != nil {
			ttl = time.Until(rc.claims.ExpiresAt.Time)
		}
		if err := rc.cache.RevokeToken(rc.claims.ID, ttl); err != nil {
			return storeError(err, "Session")
		}
		return writeJSON(w, http.StatusOK, &OkResponse{Status: OK})
	}
}
