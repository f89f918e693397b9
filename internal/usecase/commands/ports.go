package commands

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/commands/ports.go -package=mock_commands

import (
	"context"
	"time"
)

// Transaction is the processor's authoritative view of a payment.
type Transaction struct {
	Reference   string
	Status      string
	AmountMinor int64
	Currency    string
	PaidAt      *time.Time
	Channel     string
}

const TransactionStatusSuccess = "success"

func (t *Transaction) Succeeded() bool {
	return t.Status == TransactionStatusSuccess
}

type PaymentProcessor interface {
	// VerifyTransaction looks the reference up server-to-server. It must abort
	// promptly when ctx is cancelled.
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)
}

// ReferenceLock guards a payment reference against concurrent verification.
type ReferenceLock interface {
	// Acquire returns acquired=false without error when another holder owns key.
	Acquire(ctx context.Context, key string) (release func(context.Context), acquired bool, err error)
}

// noopLock is used when no lock store is configured.
type noopLock struct{}

func NewNoopReferenceLock() ReferenceLock {
	return noopLock{}
}

func (noopLock) Acquire(context.Context, string) (func(context.Context), bool, error) {
	return func(context.Context) {}, true, nil
}
