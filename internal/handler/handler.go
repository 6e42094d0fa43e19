package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/usecalistar/checkout-service/internal/models"
	service "github.com/usecalistar/checkout-service/internal/services"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
)

// SessionHeader carries the checkout session id. The payment store is keyed
// by it; a client that omits it gets a fresh session id back on create.
const SessionHeader = "X-Session-ID"

type Handler struct {
	service service.PaymentService
}

func NewHandler(s service.PaymentService) *Handler {
	return &Handler{service: s}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/payment/create", h.CreatePayment).Methods("POST")
	r.HandleFunc("/payment/status", h.GetPaymentStatus).Methods("GET")
	r.HandleFunc("/healthz", h.Healthz).Methods("GET", "HEAD")
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var order models.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)

	tx, err := h.service.CreatePayment(r.Context(), sessionID, &order)
	if err != nil {
		slog.Error("payment creation failed", "session_id", sessionID, "error", err)
		h.writeError(w, statusFor(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	transactionID := r.URL.Query().Get("id")
	if transactionID == "" {
		h.writeError(w, http.StatusBadRequest, pkgerrors.ErrMissingTransactionID)
		return
	}

	snap, err := h.service.CheckPayment(r.Context(), transactionID)
	if err != nil {
		slog.Error("status check failed", "transaction_id", transactionID, "error", err)
		h.writeError(w, statusFor(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// statusFor maps the error taxonomy to HTTP: invalid input is the caller's
// fault, gateway rejections propagate the upstream status, everything else
// (missing credential, protocol garbage) is a 500.
func statusFor(err error) int {
	var gwErr *pkgerrors.GatewayError
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidOrder),
		errors.Is(err, pkgerrors.ErrMissingTransactionID):
		return http.StatusBadRequest
	case errors.As(err, &gwErr):
		return gwErr.StatusCode
	default:
		return http.StatusInternalServerError
	}
}
