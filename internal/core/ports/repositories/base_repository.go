package repositories

import "context"

// TxRunner runs fn inside one database transaction. Repositories called with the
// context passed to fn join that transaction; the transaction commits when fn
// returns nil and rolls back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
