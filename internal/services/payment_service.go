package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/usecalistar/checkout-service/internal/infrastructure/kafka"
	"github.com/usecalistar/checkout-service/internal/lifecycle"
	"github.com/usecalistar/checkout-service/internal/models"
	"github.com/usecalistar/checkout-service/internal/store"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const paymentsTopic = "payments"

// PaymentGateway is the outbound side of the checkout flow.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, order *models.Order) (*models.Transaction, error)
	CheckStatus(ctx context.Context, transactionID string) (*models.StatusSnapshot, error)
}

type PaymentService interface {
	CreatePayment(ctx context.Context, sessionID string, order *models.Order) (*models.Transaction, error)
	CheckPayment(ctx context.Context, transactionID string) (*models.StatusSnapshot, error)
	WatchPayment(ctx context.Context, sessionID, transactionID string) (models.PaymentStatus, error)
}

type paymentService struct {
	gateway           PaymentGateway
	txStore           store.TransactionStore
	producer          kafka.KafkaProducer
	pollInterval      time.Duration
	countdownInterval time.Duration
}

func NewPaymentService(
	gateway PaymentGateway,
	txStore store.TransactionStore,
	producer kafka.KafkaProducer,
	pollInterval time.Duration,
	countdownInterval time.Duration,
) *paymentService {
	return &paymentService{
		gateway:           gateway,
		txStore:           txStore,
		producer:          producer,
		pollInterval:      pollInterval,
		countdownInterval: countdownInterval,
	}
}

// CreatePayment creates one PIX transaction and stores it as the session's
// in-flight payment, superseding any previous attempt for the session.
func (s *paymentService) CreatePayment(ctx context.Context, sessionID string, order *models.Order) (*models.Transaction, error) {
	tracer := otel.Tracer("checkout-service")
	ctx, span := tracer.Start(ctx, "CreatePayment")
	defer span.End()

	tx, err := s.gateway.CreateTransaction(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment creation failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("transaction_id", tx.TransactionID),
		attribute.Float64("value", tx.Value),
	)

	// A failed save degrades the payment page to the gateway-lookup path;
	// the transaction itself already exists upstream.
	if err := s.txStore.Save(ctx, sessionID, tx); err != nil {
		span.RecordError(err)
		slog.Error("failed to store transaction",
			"session_id", sessionID,
			"transaction_id", tx.TransactionID,
			"error", err)
	}

	s.publishEvent("payment_created", tx.TransactionID, tx.Value, tx.Status)

	slog.Info("payment created",
		"session_id", sessionID,
		"transaction_id", tx.TransactionID,
		"value", tx.Value)
	return tx, nil
}

// CheckPayment performs one direct gateway status lookup.
func (s *paymentService) CheckPayment(ctx context.Context, transactionID string) (*models.StatusSnapshot, error) {
	tracer := otel.Tracer("checkout-service")
	ctx, span := tracer.Start(ctx, "CheckPayment")
	defer span.End()

	if transactionID == "" {
		span.SetStatus(codes.Error, "missing transaction id")
		return nil, pkgerrors.ErrMissingTransactionID
	}
	span.SetAttributes(attribute.String("transaction_id", transactionID))

	snap, err := s.gateway.CheckStatus(ctx, transactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status check failed")
		return nil, err
	}
	return snap, nil
}

// WatchPayment drives the session's payment to a terminal state, emitting a
// lifecycle event when it gets there.
func (s *paymentService) WatchPayment(ctx context.Context, sessionID, transactionID string) (models.PaymentStatus, error) {
	tracer := otel.Tracer("checkout-service")
	ctx, span := tracer.Start(ctx, "WatchPayment")
	defer span.End()
	span.SetAttributes(attribute.String("transaction_id", transactionID))

	watcher := lifecycle.NewWatcher(s.gateway, s.txStore, lifecycle.Config{
		SessionID:         sessionID,
		TransactionID:     transactionID,
		PollInterval:      s.pollInterval,
		CountdownInterval: s.countdownInterval,
		OnTransition: func(_ context.Context, status models.PaymentStatus, tx *models.Transaction) {
			if !status.IsTerminal() || tx == nil {
				return
			}
			switch status {
			case models.StatusPaid:
				s.publishEvent("payment_settled", tx.TransactionID, tx.Value, status)
			case models.StatusExpired:
				s.publishEvent("payment_expired", tx.TransactionID, tx.Value, status)
			case models.StatusError:
				s.publishEvent("payment_failed", tx.TransactionID, tx.Value, status)
			}
		},
	})

	state, err := watcher.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "watch ended abnormally")
	}
	return state, err
}

// publishEvent sends a lifecycle event asynchronously with a short retry
// loop. Event delivery never blocks or fails the checkout flow.
func (s *paymentService) publishEvent(eventType, transactionID string, value float64, status models.PaymentStatus) {
	if s.producer == nil {
		return
	}

	event := map[string]interface{}{
		"event_type":     eventType,
		"transaction_id": transactionID,
		"value":          value,
		"status":         status,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal payment event",
			"event_type", eventType,
			"transaction_id", transactionID,
			"error", err)
		return
	}

	go func() {
		retries := 3
		for i := 0; i < retries; i++ {
			if err := s.producer.Send(context.Background(), paymentsTopic, transactionID, eventBytes); err == nil {
				return
			}
			time.Sleep(time.Second * time.Duration(i+1))
		}
		slog.Error("failed to send payment event after retries",
			"event_type", eventType,
			"transaction_id", transactionID)
	}()
}
