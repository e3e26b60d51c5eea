// Package httpapi exposes the authentication core over HTTP. It owns the
// route table, JSON framing and cookie application; all authentication
// decisions are delegated to the Manager and the middleware guard.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

// Handler bundles the route handlers around a Manager.
type Handler struct {
	manager *authcore.Manager
	log     *slog.Logger
}

// NewHandler builds the full router:
//
//	POST /api/user           create account (public)
//	POST /api/auth/login     issue access + refresh cookies
//	POST /api/auth/refresh   re-issue the access cookie
//	GET  /api/auth/logout    revoke the refresh token, clear both cookies
//	GET  /api/user/{id}      fetch a user (guarded)
//	PUT  /api/user/{id}      rename a user (guarded)
//	GET  /healthz            liveness + store reachability
func NewHandler(m *authcore.Manager, log *slog.Logger) http.Handler {
	h := &Handler{manager: m, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/user", h.createUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Guard(m))
			r.Get("/user/{id}", h.getUser)
			r.Put("/user/{id}", h.updateUser)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
			r.Get("/logout", h.logout)
		})
	})

	r.Get("/healthz", h.health)

	return r
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.manager.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, user)
	case errors.Is(err, authcore.ErrRegistrationInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, authcore.ErrEmailTaken):
		http.Error(w, "email already registered", http.StatusConflict)
	default:
		h.serverError(w, r, "create user failed", err)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, creds, err := h.manager.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		// Access cookie first, refresh second: clients and the test
		// contract rely on the header order.
		cookies := h.manager.Cookies()
		http.SetCookie(w, cookies.Access(creds.AccessToken))
		http.SetCookie(w, cookies.Refresh(creds.RefreshToken))
		h.writeJSON(w, http.StatusOK, user)
	case errors.Is(err, authcore.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	default:
		h.serverError(w, r, "login failed", err)
	}
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(authcore.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	creds, err := h.manager.Refresh(r.Context(), cookie.Value)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, h.manager.Cookies().Access(creds.AccessToken))
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var refreshValue string
	if cookie, err := r.Cookie(authcore.RefreshCookieName); err == nil {
		refreshValue = cookie.Value
	}

	// Logout always succeeds from the client's perspective; a store
	// failure is logged and the cookies are cleared regardless.
	if err := h.manager.Logout(r.Context(), refreshValue); err != nil {
		h.log.ErrorContext(r.Context(), "logout revoke failed", "err", err)
	}

	cookies := h.manager.Cookies()
	http.SetCookie(w, cookies.ClearAccess())
	http.SetCookie(w, cookies.ClearRefresh())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.manager.UserByID(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, user)
	case errors.Is(err, authcore.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		h.serverError(w, r, "get user failed", err)
	}
}

type updateUserRequest struct {
	Name string `json:"name"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.manager.UpdateUser(r.Context(), chi.URLParam(r, "id"), req.Name)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, user)
	case errors.Is(err, authcore.ErrRegistrationInvalid):
		http.Error(w, "name is too short", http.StatusBadRequest)
	case errors.Is(err, authcore.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		h.serverError(w, r, "update user failed", err)
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Ping(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encode failed", "err", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.ErrorContext(r.Context(), msg, "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
