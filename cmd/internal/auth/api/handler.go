package authapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"keygate/cmd/identity"
	"keygate/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints to the identity and session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	identity *identity.Service
	sessions *session.Service

	loginLimiter *loginRateLimiter
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, ids *identity.Service, sessions *session.Service) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if ids == nil {
		return nil, errors.New("auth: nil identity service")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session service")
	}

	return &Handler{
		log:          log,
		cfg:          cfg,
		identity:     ids,
		sessions:     sessions,
		loginLimiter: newLoginRateLimiter(cfg.LoginIPMax, cfg.LoginIPWindow),
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/change_password", h.handleChangePassword)
	mux.HandleFunc("/auth/delete_account", h.handleDeleteAccount)
	mux.HandleFunc("/debug", h.handleDebug)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	a, err := h.identity.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusConflict, "account_exists", "email already registered")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid email or password")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:        a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	if allowed, retryAfter := h.loginLimiter.allow(ip, now); !allowed {
		writeRateLimited(w, retryAfter)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "device_id is required")
		return
	}

	ctx := r.Context()
	a, err := h.identity.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	pair, err := h.sessions.IssueSession(ctx, now, a.ID, deviceID)
	if err != nil {
		h.log.Error("auth.login.issue_session.fail", "err", err, "user_id", a.ID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toTokenPairResponse(pair))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token := bearerToken(r)
	deviceID := deviceIDHeader(r)
	if token == "" || deviceID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
		return
	}

	now := time.Now().UTC()
	pair, err := h.sessions.Refresh(r.Context(), now, token, deviceID)
	if err != nil {
		if session.IsAuthFailure(err) {
			h.log.Info("auth.refresh.denied", "reason", err.Error())
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
			return
		}
		h.log.Error("auth.refresh.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toTokenPairResponse(pair))
}

func (h *Handler) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, debugResponse{
		UserID:    claims.UserID,
		DeviceID:  claims.DeviceID,
		ExpiresAt: claims.ExpiresAt,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	if err := h.sessions.Logout(r.Context(), now, claims); err != nil {
		h.log.Error("auth.logout.fail", "err", err, "user_id", claims.UserID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "logged_out"})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	err := h.identity.ChangePassword(r.Context(), claims.UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "password does not meet policy")
		case identity.IsNotFound(err):
			writeError(w, http.StatusUnauthorized, "unauthorized", "account not found")
		default:
			h.log.Error("auth.change_password.fail", "err", err, "user_id", claims.UserID)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "password_changed"})
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// Sessions first: even if account removal fails, the presented token is dead.
	if err := h.sessions.DeleteUserSessions(ctx, now, claims); err != nil {
		h.log.Error("auth.delete_account.sessions.fail", "err", err, "user_id", claims.UserID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if err := h.identity.Delete(ctx, claims.UserID); err != nil && !identity.IsNotFound(err) {
		h.log.Error("auth.delete_account.fail", "err", err, "user_id", claims.UserID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "account_deleted"})
}

// ---- helpers ----

func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (session.Claims, bool) {
	token := bearerToken(r)
	deviceID := deviceIDHeader(r)
	if token == "" || deviceID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
		return session.Claims{}, false
	}

	claims, err := h.sessions.Authenticate(r.Context(), time.Now().UTC(), token, deviceID)
	if err != nil {
		if !session.IsAuthFailure(err) {
			h.log.Error("auth.authenticate.fail", "err", err)
		}
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return session.Claims{}, false
	}
	return claims, true
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func deviceIDHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Device-ID"))
}

func toTokenPairResponse(pair session.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:      pair.Access.Token,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:     pair.Refresh.Token,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if raw := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); raw != "" {
			parts := strings.Split(raw, ",")
			if ip := net.ParseIP(strings.TrimSpace(parts[0])); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
