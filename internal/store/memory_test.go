package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usecalistar/checkout-service/internal/models"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tx := &models.Transaction{
		TransactionID:  "tx_1",
		Value:          150.00,
		PixCode:        "000201pixcode",
		ExpirationDate: time.Now().Add(24 * time.Hour),
		Status:         models.StatusWaitingPayment,
	}

	t.Run("load before save", func(t *testing.T) {
		_, err := s.Load(ctx, "sess-1")
		assert.ErrorIs(t, err, pkgerrors.ErrNoTransaction)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "sess-1", tx))
		got, err := s.Load(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, tx.TransactionID, got.TransactionID)
		assert.Equal(t, tx.Value, got.Value)
	})

	t.Run("save overwrites prior record", func(t *testing.T) {
		newer := &models.Transaction{TransactionID: "tx_2", Value: 99.90, Status: models.StatusWaitingPayment}
		require.NoError(t, s.Save(ctx, "sess-1", newer))
		got, err := s.Load(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "tx_2", got.TransactionID)
	})

	t.Run("clear removes record", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx, "sess-1"))
		_, err := s.Load(ctx, "sess-1")
		assert.ErrorIs(t, err, pkgerrors.ErrNoTransaction)
	})

	t.Run("nil transaction rejected", func(t *testing.T) {
		assert.ErrorIs(t, s.Save(ctx, "sess-1", nil), pkgerrors.ErrNilTransaction)
	})
}
