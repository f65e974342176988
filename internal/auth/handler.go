package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

// Handler serves the token-issuing endpoints.
type Handler struct {
	svc *Service
}

// HandlerConfig holds the dependencies of a Handler.
type HandlerConfig struct {
	Service *Service
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{svc: cfg.Service}
}

// RegisterRoutes registers auth routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/admin/login", h.HandleAdminLogin)
	mux.HandleFunc("POST /auth/admin/register", h.HandleAdminRegister)
	mux.HandleFunc("POST /auth/login", h.HandleRegularLogin)
	mux.HandleFunc("POST /auth/register", h.HandleRegularRegister)
	mux.HandleFunc("POST /auth/anonymous", h.HandleAnonymousLogin)
	mux.Handle("GET /auth/session", Middleware(h.svc.Tokens())(http.HandlerFunc(h.HandleSession)))
}

func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminCredentials
	if err := decodeBody(w, r, &req); err != nil {
		writeResponse(w, h.svc.Reject(r.Context(), FlowAdminLogin, err))
		return
	}
	writeResponse(w, h.svc.AdminLogin(r.Context(), req))
}

func (h *Handler) HandleAdminRegister(w http.ResponseWriter, r *http.Request) {
	var req AdminCredentials
	if err := decodeBody(w, r, &req); err != nil {
		writeResponse(w, h.svc.Reject(r.Context(), FlowAdminRegister, err))
		return
	}
	writeResponse(w, h.svc.AdminRegister(r.Context(), req))
}

func (h *Handler) HandleRegularLogin(w http.ResponseWriter, r *http.Request) {
	var req RegularLoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeResponse(w, h.svc.Reject(r.Context(), FlowRegularLogin, err))
		return
	}
	writeResponse(w, h.svc.RegularLogin(r.Context(), req))
}

func (h *Handler) HandleRegularRegister(w http.ResponseWriter, r *http.Request) {
	var req RegularRegistration
	if err := decodeBody(w, r, &req); err != nil {
		writeResponse(w, h.svc.Reject(r.Context(), FlowRegularRegister, err))
		return
	}
	writeResponse(w, h.svc.RegularRegister(r.Context(), req))
}

// HandleAnonymousLogin ignores the request body.
func (h *Handler) HandleAnonymousLogin(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.svc.AnonymousLogin(r.Context()))
}

type sessionBody struct {
	UserID      string         `json:"userID"`
	UserType    string         `json:"userType"`
	IsAnonymous bool           `json:"is_anonymous"`
	IssuedAt    time.Time      `json:"issuedAt"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	Custom      map[string]any `json:"custom"`
}

// HandleSession returns the claims of the bearer token.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Message: "authentication required"})
		return
	}
	writeJSON(w, http.StatusOK, sessionBody{
		UserID:      claims.SubjectID,
		UserType:    string(claims.ActorClass),
		IsAnonymous: claims.IsAnonymous,
		IssuedAt:    claims.IssuedAt.UTC(),
		ExpiresAt:   claims.ExpiresAt.UTC(),
		Custom:      claims.Extra,
	})
}

// decodeBody reads a JSON object into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func writeResponse(w http.ResponseWriter, resp Response) {
	writeJSON(w, resp.Status, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
