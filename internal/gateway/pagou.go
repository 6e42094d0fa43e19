package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/usecalistar/checkout-service/internal/infrastructure/observability"
	"github.com/usecalistar/checkout-service/internal/models"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const expirationWindow = 24 * time.Hour

// Client talks to the Pagou PIX API. It translates checkout orders into the
// gateway's request schema and normalizes responses and errors.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Pagou's payment schema. The "neighboor" spelling is the gateway's own.
type pagouPaymentRequest struct {
	Type        string           `json:"type"`
	Payer       pagouPayer       `json:"payer"`
	Transaction pagouTransaction `json:"transaction"`
}

type pagouPayer struct {
	FullName string       `json:"fullName"`
	Document string       `json:"document"`
	Contact  pagouContact `json:"contact"`
	Address  pagouAddress `json:"address"`
}

type pagouContact struct {
	Phone string `json:"phone"`
	Mail  string `json:"mail"`
}

type pagouAddress struct {
	ZipCode   string `json:"zipCode"`
	Street    string `json:"street"`
	Neighboor string `json:"neighboor"`
	Number    string `json:"number"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
}

type pagouTransaction struct {
	Value          float64 `json:"value"`
	Description    string  `json:"description"`
	ExternalID     string  `json:"externalId"`
	ExpirationTime int     `json:"expirationTime"`
}

type pagouPaymentResponse struct {
	TransactionID  string `json:"transactionId"`
	Status         string `json:"status"`
	PixQrCode      string `json:"pixQrCode"`
	PixCode        string `json:"pixCode"`
	ExpirationDate string `json:"expirationDate"`
	PaymentLink    string `json:"paymentLink"`
}

type pagouStatusResponse struct {
	ID        string `json:"_id"`
	Operation struct {
		Status                string  `json:"status"`
		Value                 float64 `json:"value"`
		PaymentSettlementDate string  `json:"paymentSettlementDate"`
	} `json:"operation"`
}

type pagouErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CreateTransaction issues one payment-creation request and returns the
// normalized transaction. The external reference it generates is advisory
// only: the gateway decides actual idempotency.
func (c *Client) CreateTransaction(ctx context.Context, order *models.Order) (*models.Transaction, error) {
	var err error
	tracer := otel.Tracer("pagou-gateway")
	ctx, span := tracer.Start(ctx, "CreateTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.GatewayCalls.WithLabelValues("CreateTransaction", status).Inc()
		observability.GatewayDuration.WithLabelValues("CreateTransaction").Observe(time.Since(start).Seconds())
	}()

	if c.secretKey == "" {
		err = pkgerrors.ErrNotConfigured
		slog.Error("gateway credential missing", "operation", "CreateTransaction")
		return nil, err
	}
	if err = validateOrder(order); err != nil {
		slog.Error("invalid order", "error", err)
		return nil, err
	}

	externalID := newExternalID()
	span.SetAttributes(
		attribute.String("external_id", externalID),
		attribute.Float64("value", order.Value),
	)

	reqBody := pagouPaymentRequest{
		Type: "PIX",
		Payer: pagouPayer{
			FullName: order.Payer.FullName,
			Document: digitsOnly(order.Payer.Document),
			Contact: pagouContact{
				Phone: internationalPhone(order.Payer.Phone),
				Mail:  order.Payer.Email,
			},
			Address: pagouAddress{
				ZipCode:   order.Payer.Address.ZipCode,
				Street:    order.Payer.Address.Street,
				Neighboor: order.Payer.Address.Neighborhood,
				Number:    order.Payer.Address.Number,
				City:      order.Payer.Address.City,
				State:     order.Payer.Address.State,
				Country:   order.Payer.Address.Country,
			},
		},
		Transaction: pagouTransaction{
			Value:          order.Value,
			Description:    order.Description,
			ExternalID:     externalID,
			ExpirationTime: int(expirationWindow.Seconds()),
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pix/v1/payment", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("payment creation request failed", "external_id", externalID, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr pagouErrorResponse
		message := ""
		if jsonErr := json.Unmarshal(raw, &gwErr); jsonErr == nil {
			if gwErr.Message != "" {
				message = gwErr.Message
			} else {
				message = gwErr.Error
			}
		}
		err = &pkgerrors.GatewayError{StatusCode: resp.StatusCode, Message: message}
		slog.Error("gateway rejected payment creation",
			"external_id", externalID,
			"status_code", resp.StatusCode,
			"message", message)
		return nil, err
	}

	var data pagouPaymentResponse
	if jsonErr := json.Unmarshal(raw, &data); jsonErr != nil {
		err = &pkgerrors.ProtocolError{Body: string(raw)}
		slog.Error("unparseable gateway response", "external_id", externalID, "body", string(raw))
		return nil, err
	}

	tx := &models.Transaction{
		TransactionID:  data.TransactionID,
		Value:          order.Value,
		PixQrCode:      data.PixQrCode,
		PixCode:        data.PixCode,
		PaymentLink:    data.PaymentLink,
		ExpirationDate: parseExpiration(data.ExpirationDate, start),
		Status:         models.FromGatewayStatus(data.Status),
	}

	slog.Info("payment created",
		"transaction_id", tx.TransactionID,
		"external_id", externalID,
		"value", tx.Value,
		"expires_at", tx.ExpirationDate)
	return tx, nil
}

// CheckStatus performs one transaction lookup and maps the gateway status
// onto the local vocabulary.
func (c *Client) CheckStatus(ctx context.Context, transactionID string) (*models.StatusSnapshot, error) {
	var err error
	tracer := otel.Tracer("pagou-gateway")
	ctx, span := tracer.Start(ctx, "CheckStatus")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.GatewayCalls.WithLabelValues("CheckStatus", status).Inc()
		observability.GatewayDuration.WithLabelValues("CheckStatus").Observe(time.Since(start).Seconds())
	}()

	if transactionID == "" {
		err = pkgerrors.ErrMissingTransactionID
		return nil, err
	}
	if c.secretKey == "" {
		err = pkgerrors.ErrNotConfigured
		slog.Error("gateway credential missing", "operation", "CheckStatus")
		return nil, err
	}
	span.SetAttributes(attribute.String("transaction_id", transactionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pix/v1/transactions/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apiKey", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr pagouErrorResponse
		message := "Failed to check payment status"
		if jsonErr := json.Unmarshal(raw, &gwErr); jsonErr == nil && gwErr.Message != "" {
			message = gwErr.Message
		}
		err = &pkgerrors.GatewayError{StatusCode: resp.StatusCode, Message: message}
		slog.Error("gateway rejected status check",
			"transaction_id", transactionID,
			"status_code", resp.StatusCode,
			"message", message)
		return nil, err
	}

	var data pagouStatusResponse
	if jsonErr := json.Unmarshal(raw, &data); jsonErr != nil {
		err = &pkgerrors.ProtocolError{Body: string(raw)}
		slog.Error("unparseable gateway response", "transaction_id", transactionID, "body", string(raw))
		return nil, err
	}

	snap := &models.StatusSnapshot{
		TransactionID: data.ID,
		Status:        models.FromGatewayStatus(data.Operation.Status),
		Value:         data.Operation.Value,
		PaymentDate:   data.Operation.PaymentSettlementDate,
	}
	if snap.TransactionID == "" {
		snap.TransactionID = transactionID
	}
	return snap, nil
}

func validateOrder(order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", pkgerrors.ErrInvalidOrder)
	}
	if order.Value <= 0 {
		return fmt.Errorf("%w: value must be positive", pkgerrors.ErrInvalidOrder)
	}
	if order.Payer.FullName == "" {
		return fmt.Errorf("%w: payer full name is required", pkgerrors.ErrInvalidOrder)
	}
	if digitsOnly(order.Payer.Document) == "" {
		return fmt.Errorf("%w: payer document is required", pkgerrors.ErrInvalidOrder)
	}
	if order.Payer.Email == "" {
		return fmt.Errorf("%w: payer email is required", pkgerrors.ErrInvalidOrder)
	}
	if digitsOnly(order.Payer.Phone) == "" {
		return fmt.Errorf("%w: payer phone is required", pkgerrors.ErrInvalidOrder)
	}
	return nil
}

// newExternalID builds the advisory correlation id attached to the gateway
// request so duplicate submissions are distinguishable upstream.
func newExternalID() string {
	return fmt.Sprintf("order-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// internationalPhone normalizes a phone number to full international format.
// Bare national digits get the Brazilian country code prefixed.
func internationalPhone(phone string) string {
	digits := digitsOnly(phone)
	if strings.HasPrefix(strings.TrimSpace(phone), "+") {
		return "+" + digits
	}
	return "+55" + digits
}

func parseExpiration(raw string, createdAt time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return createdAt.Add(expirationWindow)
}
