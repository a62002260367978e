package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"sweet-shop/apperror"
	"sweet-shop/auth"
	models "sweet-shop/model"
	"sweet-shop/service"
	"sweet-shop/validate"
)

const maxBodyBytes = 1 << 20

// Authenticator turns an Authorization header into an identity.
type Authenticator interface {
	Authenticate(header string) (models.Identity, error)
}

// AccountService registers and logs in users.
type AccountService interface {
	Register(ctx context.Context, email, password string, role models.Role) (auth.Result, error)
	Login(ctx context.Context, email, password string) (auth.Result, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc      service.ServiceInterface
	accounts AccountService
	authn    Authenticator
	db       Pinger
	logger   *slog.Logger
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, accounts AccountService, authn Authenticator, db Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: s, accounts: accounts, authn: authn, db: db, logger: logger}
}

// RegisterRoutes registers all routes on the provided router. API routes live
// under prefix; the banner and health check are always at the root.
func (h *Handler) RegisterRoutes(r *mux.Router, prefix string) {
	r.HandleFunc("/", h.Banner).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")

	api := r
	if prefix != "" && prefix != "/" {
		api = r.PathPrefix(prefix).Subrouter()
	}

	// Auth
	api.HandleFunc("/auth/register", h.Register).Methods("POST")
	api.HandleFunc("/auth/login", h.Login).Methods("POST")

	// Sweets; search must be registered before {id}
	api.HandleFunc("/sweets", h.adminOnly(h.CreateSweet)).Methods("POST")
	api.HandleFunc("/sweets", h.ListSweets).Methods("GET")
	api.HandleFunc("/sweets/search", h.SearchSweets).Methods("GET")
	api.HandleFunc("/sweets/{id}", h.GetSweet).Methods("GET")
	api.HandleFunc("/sweets/{id}", h.adminOnly(h.UpdateSweet)).Methods("PUT")
	api.HandleFunc("/sweets/{id}", h.adminOnly(h.DeleteSweet)).Methods("DELETE")

	// Inventory
	api.HandleFunc("/sweets/{id}/purchase", h.authenticated(h.PurchaseSweet)).Methods("POST")
	api.HandleFunc("/sweets/{id}/restock", h.adminOnly(h.RestockSweet)).Methods("POST")
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps err to a status by its kind. Internal errors are logged and
// replaced with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal("", err)
	}
	if appErr.Kind == apperror.KindInternal {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeErr(w, appErr.Kind.Status(), appErr.PublicMessage())
}

// decodeObject reads a JSON object body. An empty body is an empty object.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	raw := map[string]any{}
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperror.Validation("body", "Invalid JSON")
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func sweetID(r *http.Request) (int64, error) {
	return validate.ID(mux.Vars(r)["id"])
}

// Banner handles GET /
func (h *Handler) Banner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Sweet Shop Backend is running\n")
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
