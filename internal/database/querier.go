package database

import "context"

// Querier is the query surface of the store. Callers depend on this
// interface so tests can substitute a mock.
type Querier interface {
	CreateRepository(ctx context.Context, name string) (Repository, error)
	GetRepositoryByName(ctx context.Context, name string) (Repository, error)
	ListRepositories(ctx context.Context) ([]Repository, error)
	CreateCommits(ctx context.Context, arg []CreateCommitsParams) (int64, error)
	ListCommits(ctx context.Context, arg ListCommitsParams) ([]ListCommitsRow, error)
	CountCommits(ctx context.Context, arg CountCommitsParams) (int64, error)
}

var _ Querier = (*Queries)(nil)
