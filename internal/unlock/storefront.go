package unlock

import (
	"context"
	"errors"
)

// TransactionState is the outcome of a purchase or restore
type TransactionState string

const (
	TransactionPurchased TransactionState = "purchased"
	TransactionRestored  TransactionState = "restored"
	TransactionFailed    TransactionState = "failed"
	TransactionDeferred  TransactionState = "deferred"
)

// Transaction reports what happened to one payment
type Transaction struct {
	ProductID string           `json:"product_id"`
	State     TransactionState `json:"state"`
	Error     string           `json:"error,omitempty"`
}

// Err returns the failure reason of a failed transaction
func (t Transaction) Err() error {
	if t.State != TransactionFailed {
		return nil
	}
	if t.Error == "" {
		return errors.New("transaction failed")
	}
	return errors.New(t.Error)
}

// ProductsResponse lists the products found and the identifiers that were not recognised
type ProductsResponse struct {
	Products   []Product `json:"products"`
	InvalidIDs []string  `json:"invalid_ids,omitempty"`
}

// Storefront sells products
type Storefront interface {
	Products(ctx context.Context, ids []string) (ProductsResponse, error)
	Buy(ctx context.Context, productID string) (Transaction, error)
	Restore(ctx context.Context) ([]Transaction, error)
}
