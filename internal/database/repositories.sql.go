package database

import "context"

const createRepository = `
INSERT INTO repositories (name)
VALUES ($1)
RETURNING id, name, created_at
`

func (q *Queries) CreateRepository(ctx context.Context, name string) (Repository, error) {
	row := q.db.QueryRow(ctx, createRepository, name)
	var r Repository
	err := row.Scan(&r.ID, &r.Name, &r.CreatedAt)
	return r, err
}

const getRepositoryByName = `
SELECT id, name, created_at
FROM repositories
WHERE name = $1
ORDER BY id
LIMIT 1
`

func (q *Queries) GetRepositoryByName(ctx context.Context, name string) (Repository, error) {
	row := q.db.QueryRow(ctx, getRepositoryByName, name)
	var r Repository
	err := row.Scan(&r.ID, &r.Name, &r.CreatedAt)
	return r, err
}

const listRepositories = `
SELECT id, name, created_at
FROM repositories
ORDER BY id
`

func (q *Queries) ListRepositories(ctx context.Context) ([]Repository, error) {
	rows, err := q.db.Query(ctx, listRepositories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Repository
	for rows.Next() {
		var r Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
