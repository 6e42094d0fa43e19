package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGatewayStatus(t *testing.T) {
	tests := []struct {
		gateway string
		want    PaymentStatus
	}{
		{"PAID", StatusPaid},
		{"ERROR", StatusError},
		{"EXPIRED", StatusExpired},
		{"CREATED", StatusWaitingPayment},
		{"PENDING", StatusWaitingPayment},
		{"paid", StatusWaitingPayment},
		{"", StatusWaitingPayment},
	}

	for _, tt := range tests {
		t.Run("gateway status "+tt.gateway, func(t *testing.T) {
			assert.Equal(t, tt.want, FromGatewayStatus(tt.gateway))
		})
	}
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusPaid.IsTerminal())
	assert.True(t, StatusError.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.False(t, StatusLoading.IsTerminal())
	assert.False(t, StatusWaitingPayment.IsTerminal())
}
