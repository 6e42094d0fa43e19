package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/usecalistar/checkout-service/internal/infrastructure/observability"
	"github.com/usecalistar/checkout-service/internal/models"
	"github.com/usecalistar/checkout-service/internal/store"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
)

// StatusChecker is the slice of the gateway client the watcher needs.
type StatusChecker interface {
	CheckStatus(ctx context.Context, transactionID string) (*models.StatusSnapshot, error)
}

// Config controls one watch. Both intervals must be set; Now defaults to
// time.Now.
type Config struct {
	SessionID         string
	TransactionID     string
	PollInterval      time.Duration
	CountdownInterval time.Duration
	Now               func() time.Time
	// OnTransition fires on every state change, including the terminal one.
	OnTransition func(ctx context.Context, status models.PaymentStatus, tx *models.Transaction)
}

// Watcher drives one payment to its terminal state. Two timers — the status
// poll and the expiration countdown — feed a single event loop, so ordering
// between a poll result and an expiration tick is deterministic. Polls run
// synchronously inside the loop: a slow gateway round-trip makes the loop
// skip ticks instead of stacking requests.
type Watcher struct {
	machine  *Machine
	checker  StatusChecker
	txStore  store.TransactionStore
	cfg      Config
	checkNow chan struct{}
}

func NewWatcher(checker StatusChecker, txStore store.TransactionStore, cfg Config) *Watcher {
	return &Watcher{
		machine:  NewMachine(cfg.Now),
		checker:  checker,
		txStore:  txStore,
		cfg:      cfg,
		checkNow: make(chan struct{}, 1),
	}
}

func (w *Watcher) State() models.PaymentStatus {
	return w.machine.State()
}

// CheckNow requests an immediate status check, same as a poll tick. Safe to
// call from any goroutine; coalesces when one is already queued.
func (w *Watcher) CheckNow() {
	select {
	case w.checkNow <- struct{}{}:
	default:
	}
}

// Run blocks until the payment reaches a terminal state or ctx is canceled.
// It returns ErrInvalidFlow when there is neither a stored record for the
// session nor a transaction id to fall back to.
func (w *Watcher) Run(ctx context.Context) (models.PaymentStatus, error) {
	if err := w.adopt(ctx); err != nil {
		return w.machine.State(), err
	}

	if state := w.machine.State(); state.IsTerminal() {
		w.finish(ctx, state)
		return state, nil
	}

	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()
	countdown := time.NewTicker(w.cfg.CountdownInterval)
	defer countdown.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.machine.State(), ctx.Err()
		case <-poll.C:
			w.poll(ctx)
		case <-w.checkNow:
			w.poll(ctx)
		case <-countdown.C:
			if state, changed := w.machine.Tick(); changed {
				observability.PaymentTransitions.WithLabelValues(state.String()).Inc()
				slog.Info("payment expired locally",
					"transaction_id", w.transactionID(),
					"state", state)
			}
		}

		if state := w.machine.State(); state.IsTerminal() {
			w.finish(ctx, state)
			return state, nil
		}
	}
}

// adopt seeds the machine: stored record first, then a one-off gateway
// lookup by id, else the flow is invalid.
func (w *Watcher) adopt(ctx context.Context) error {
	tx, err := w.txStore.Load(ctx, w.cfg.SessionID)
	if err == nil {
		w.machine.Adopt(tx)
		slog.Info("adopted stored transaction",
			"session_id", w.cfg.SessionID,
			"transaction_id", tx.TransactionID,
			"state", w.machine.State())
		return nil
	}
	if !errors.Is(err, pkgerrors.ErrNoTransaction) {
		slog.Error("failed to load stored transaction",
			"session_id", w.cfg.SessionID, "error", err)
	}

	if w.cfg.TransactionID == "" {
		return pkgerrors.ErrInvalidFlow
	}

	snap, err := w.checker.CheckStatus(ctx, w.cfg.TransactionID)
	if err != nil {
		return err
	}
	w.machine.AdoptSnapshot(snap)
	slog.Info("adopted transaction from gateway lookup",
		"transaction_id", w.cfg.TransactionID,
		"state", w.machine.State())
	return nil
}

// poll performs one synchronous status check. Failures are logged and
// swallowed; the state stays WAITING_PAYMENT and the next tick retries. The
// result is re-applied through the machine, which discards it if the state
// went terminal while the request was in flight.
func (w *Watcher) poll(ctx context.Context) {
	if w.machine.State() != models.StatusWaitingPayment {
		return
	}
	snap, err := w.checker.CheckStatus(ctx, w.transactionID())
	if err != nil {
		slog.Warn("status check failed, will retry",
			"transaction_id", w.transactionID(),
			"error", err)
		return
	}
	if state, changed := w.machine.ApplySnapshot(snap); changed {
		observability.PaymentTransitions.WithLabelValues(state.String()).Inc()
		slog.Info("payment state changed",
			"transaction_id", w.transactionID(),
			"state", state)
	}
}

// finish releases the session record on confirmed payment and reports the
// terminal transition.
func (w *Watcher) finish(ctx context.Context, state models.PaymentStatus) {
	if state == models.StatusPaid {
		if err := w.txStore.Clear(ctx, w.cfg.SessionID); err != nil {
			slog.Error("failed to clear stored transaction",
				"session_id", w.cfg.SessionID, "error", err)
		}
	}
	if w.cfg.OnTransition != nil {
		w.cfg.OnTransition(ctx, state, w.machine.Transaction())
	}
}

func (w *Watcher) transactionID() string {
	if tx := w.machine.Transaction(); tx != nil && tx.TransactionID != "" {
		return tx.TransactionID
	}
	return w.cfg.TransactionID
}
