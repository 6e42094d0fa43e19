package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usecalistar/checkout-service/internal/models"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
)

type fakePaymentService struct {
	createTx  *models.Transaction
	createErr error
	snap      *models.StatusSnapshot
	snapErr   error

	gotSessionID string
	gotOrder     *models.Order
	gotCheckID   string
}

func (f *fakePaymentService) CreatePayment(_ context.Context, sessionID string, order *models.Order) (*models.Transaction, error) {
	f.gotSessionID = sessionID
	f.gotOrder = order
	return f.createTx, f.createErr
}

func (f *fakePaymentService) CheckPayment(_ context.Context, transactionID string) (*models.StatusSnapshot, error) {
	f.gotCheckID = transactionID
	return f.snap, f.snapErr
}

func (f *fakePaymentService) WatchPayment(_ context.Context, _, _ string) (models.PaymentStatus, error) {
	return models.StatusWaitingPayment, nil
}

func newTestRouter(svc *fakePaymentService) *mux.Router {
	r := mux.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

const createBody = `{
	"value": 150.00,
	"description": "Pedido usecalistar: 2x Legging",
	"payer": {
		"fullName": "Maria da Silva",
		"document": "12345678909",
		"phone": "+5511987654321",
		"email": "maria@example.com",
		"address": {
			"zipCode": "01310-100", "street": "Av. Paulista",
			"neighborhood": "Bela Vista", "number": "1000",
			"city": "São Paulo", "state": "SP", "country": "BR"
		}
	},
	"items": [{"id": "leg-1", "name": "Legging", "quantity": 2, "price": 75.00}]
}`

func TestHandler_CreatePayment(t *testing.T) {
	t.Run("success returns the normalized transaction", func(t *testing.T) {
		svc := &fakePaymentService{createTx: &models.Transaction{
			TransactionID:  "tx_1",
			Value:          150.00,
			PixQrCode:      "data:image/png;base64,abc",
			PixCode:        "000201pixcode",
			ExpirationDate: time.Now().Add(24 * time.Hour),
			Status:         models.StatusWaitingPayment,
		}}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/create", strings.NewReader(createBody))
		req.Header.Set(SessionHeader, "sess-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "sess-1", svc.gotSessionID)
		assert.Equal(t, 150.00, svc.gotOrder.Value)
		assert.Len(t, svc.gotOrder.Items, 1)

		var resp models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "tx_1", resp.TransactionID)
		assert.Equal(t, models.StatusWaitingPayment, resp.Status)
	})

	t.Run("missing session header gets a generated session id", func(t *testing.T) {
		svc := &fakePaymentService{createTx: &models.Transaction{TransactionID: "tx_1"}}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/create", strings.NewReader(createBody))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(SessionHeader))
		assert.NotEmpty(t, svc.gotSessionID)
	})

	t.Run("credential unset yields 500 with fixed message", func(t *testing.T) {
		svc := &fakePaymentService{createErr: pkgerrors.ErrNotConfigured}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/create", strings.NewReader(createBody))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Payment service is not configured", resp["error"])
	})

	t.Run("gateway rejection propagates upstream status and message", func(t *testing.T) {
		svc := &fakePaymentService{createErr: &pkgerrors.GatewayError{StatusCode: 422, Message: "document is invalid"}}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/create", strings.NewReader(createBody))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "document is invalid", resp["error"])
	})

	t.Run("invalid order is the caller's fault", func(t *testing.T) {
		svc := &fakePaymentService{createErr: pkgerrors.ErrInvalidOrder}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/payment/create", strings.NewReader(createBody))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(&fakePaymentService{})

		req := httptest.NewRequest(http.MethodPost, "/payment/create", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_GetPaymentStatus(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		router := newTestRouter(&fakePaymentService{})

		req := httptest.NewRequest(http.MethodGet, "/payment/status", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Transaction ID is required", resp["error"])
	})

	t.Run("success returns the snapshot", func(t *testing.T) {
		svc := &fakePaymentService{snap: &models.StatusSnapshot{
			TransactionID: "tx_1",
			Status:        models.StatusPaid,
			Value:         150.00,
			PaymentDate:   "2026-08-31T12:00:00Z",
		}}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/payment/status?id=tx_1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tx_1", svc.gotCheckID)

		var resp models.StatusSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, models.StatusPaid, resp.Status)
		assert.Equal(t, 150.00, resp.Value)
	})

	t.Run("upstream failure yields 500", func(t *testing.T) {
		svc := &fakePaymentService{snapErr: &pkgerrors.ProtocolError{Body: "<html>bad gateway</html>"}}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/payment/status?id=tx_1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandler_Healthz(t *testing.T) {
	router := newTestRouter(&fakePaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
