package store

import (
	"context"

	"github.com/usecalistar/checkout-service/internal/models"
)

// TransactionStore holds the single in-flight transaction for one checkout
// session. It is ephemeral by contract: a record missing here is not an
// error condition for the flow, only a signal to fall back to querying the
// gateway directly by transaction id.
type TransactionStore interface {
	// Save overwrites any prior record for the session.
	Save(ctx context.Context, sessionID string, tx *models.Transaction) error
	// Load returns ErrNoTransaction when nothing is stored.
	Load(ctx context.Context, sessionID string) (*models.Transaction, error)
	// Clear removes the record. Called once, on confirmed payment.
	Clear(ctx context.Context, sessionID string) error
}
