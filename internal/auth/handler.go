// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
	"github.com/Favourez/loope/internal/middleware"
	"github.com/Favourez/loope/internal/user"
)

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type Handler struct {
	service   *Service
	cookie    CookieConfig
	validator *validator.Validate
}

func NewHandler(service *Service, cookie CookieConfig) *Handler {
	return &Handler{
		service:   service,
		cookie:    cookie,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the cookie-session endpoints.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
		})
	})
}

// RegisterAPIRoutes mounts the bearer-token endpoints of the REST surface.
func (h *Handler) RegisterAPIRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/logout", h.RevokeToken)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		var dup *user.DuplicateIdentityError
		switch {
		case errors.As(err, &dup):
			core.JSONError(w, core.DuplicateError(dup.Field))
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, err.Error())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, user.ToUserResponse(u))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}

	token, u, err := h.service.Login(
		r.Context(),
		req.Username,
		req.Password,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.cookie.TTL))
	core.OK(w, user.ToUserResponse(u))
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}

	tokens, u, err := h.service.IssueAccessToken(
		r.Context(),
		req.Username,
		req.Password,
	)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"user":   user.ToUserResponse(u),
		"tokens": tokens,
	})
}

func (h *Handler) decodeLogin(
	w http.ResponseWriter,
	r *http.Request,
) (LoginRequest, bool) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}

	return req, true
}

func writeLoginError(w http.ResponseWriter, err error) {
	if errors.Is(err, user.ErrInvalidCredentials) {
		core.JSONError(w, core.UnauthorizedError("invalid username or password"))
		return
	}
	core.InternalServerError(w, err)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			core.InternalServerError(w, err)
			return
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	core.NoContent(w)
}

func (h *Handler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	err := h.service.RevokeAccessToken(r.Context(), claims.TokenID, claims.ExpiresAt)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		core.Unauthorized(w, "")
		return
	}

	u, err := h.service.users.GetByID(r.Context(), caller.ID())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, user.ToUserResponse(u))
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		core.Unauthorized(w, "")
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), caller.ID())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		core.Unauthorized(w, "")
		return
	}

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil || sessionID <= 0 {
		core.BadRequest(w, "invalid session id")
		return
	}

	if err := h.service.RevokeSession(r.Context(), caller.ID(), sessionID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "session")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}

	return c
}

func extractIPAddress(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
