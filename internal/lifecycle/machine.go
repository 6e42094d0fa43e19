package lifecycle

import (
	"sync"
	"time"

	"github.com/usecalistar/checkout-service/internal/models"
)

// Machine derives a discrete payment state from polled gateway snapshots and
// the local wall clock. Transitions are monotonic toward a terminal state:
// once PAID, ERROR, or EXPIRED is reached nothing moves it again.
//
// The clock is injected so expiration behavior is testable without real
// timers.
type Machine struct {
	mu    sync.RWMutex
	state models.PaymentStatus
	tx    *models.Transaction
	now   func() time.Time
}

func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{state: models.StatusLoading, now: now}
}

func (m *Machine) State() models.PaymentStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Machine) Transaction() *models.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tx
}

// Adopt takes over a transaction record, typically one loaded from the
// session store. The machine moves to WAITING_PAYMENT unless the record
// already carries a terminal status.
func (m *Machine) Adopt(tx *models.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.IsTerminal() {
		return
	}
	m.tx = tx
	if tx.Status.IsTerminal() {
		m.state = tx.Status
		return
	}
	m.state = models.StatusWaitingPayment
}

// AdoptSnapshot seeds the machine from a one-off gateway lookup. This is the
// degraded path for a payment page reached without a stored record.
func (m *Machine) AdoptSnapshot(snap *models.StatusSnapshot) {
	m.Adopt(&models.Transaction{
		TransactionID: snap.TransactionID,
		Value:         snap.Value,
		Status:        snap.Status,
	})
}

// ApplySnapshot feeds one poll result into the machine. A snapshot arriving
// after the machine has gone terminal is discarded: last-applied-wins only
// holds between non-terminal observations.
func (m *Machine) ApplySnapshot(snap *models.StatusSnapshot) (models.PaymentStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.IsTerminal() {
		return m.state, false
	}
	if snap.Status.IsTerminal() {
		m.state = snap.Status
		if m.tx != nil {
			m.tx.Status = snap.Status
		}
		return m.state, true
	}
	if m.state == models.StatusLoading {
		m.state = models.StatusWaitingPayment
		return m.state, true
	}
	return m.state, false
}

// Tick runs the wall-clock expiration check. The local clock is a source of
// truth independent of the gateway: the moment now passes the expiration
// date, the payment is EXPIRED even if no poll ever completed.
func (m *Machine) Tick() (models.PaymentStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != models.StatusWaitingPayment || m.tx == nil {
		return m.state, false
	}
	if m.tx.ExpirationDate.IsZero() || m.now().Before(m.tx.ExpirationDate) {
		return m.state, false
	}
	m.state = models.StatusExpired
	m.tx.Status = models.StatusExpired
	return m.state, true
}

// Remaining reports the time left until expiration, floored at zero.
func (m *Machine) Remaining() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tx == nil || m.tx.ExpirationDate.IsZero() {
		return 0
	}
	left := m.tx.ExpirationDate.Sub(m.now())
	if left < 0 {
		return 0
	}
	return left
}
