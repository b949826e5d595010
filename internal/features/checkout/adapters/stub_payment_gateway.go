package adapters

import (
	"context"

	"pixelpanic/internal/core/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StubPaymentGateway approves every capture. There is no real payment provider.
type StubPaymentGateway struct{}

// NewStubPaymentGateway creates a new StubPaymentGateway.
func NewStubPaymentGateway() *StubPaymentGateway {
	return &StubPaymentGateway{}
}

func (g *StubPaymentGateway) Capture(_ context.Context, orderID uuid.UUID, amount decimal.Decimal) (string, error) {
	ref := "stub_" + uuid.NewString()
	logger.Named("payments").Info("Payment captured",
		zap.String("order_id", orderID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("reference", ref),
	)
	return ref, nil
}
