package repositories

import "context"

// TxFn is a function that runs within a transaction.
// It must use the context it receives so repositories join the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs a function atomically: every repository write made
// through the callback's context commits together or not at all.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
