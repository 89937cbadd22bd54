package repositories

import (
	"context"
)

// Repository aggregates every entity repository behind one handle.
// Services receive this interface so tests can swap in mocks.
type Repository interface {
	Applications() ApplicationRepository
	Documents() DocumentRepository
	Messages() MessageRepository
	Destinations() DestinationRepository
	Users() UserRepository

	// WithTransaction runs fn with a Repository bound to a transaction.
	// Sub-repositories obtained inside fn share the transaction.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
