package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createCommits = `
INSERT INTO commits (repository_id, sha, message, author, url, date, avatar)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (repository_id, sha) DO NOTHING
`

type CreateCommitsParams struct {
	RepositoryID int64
	Sha          pgtype.Text
	Message      pgtype.Text
	Author       pgtype.Text
	Url          pgtype.Text
	Date         pgtype.Timestamptz
	Avatar       pgtype.Text
}

// CreateCommits inserts the given rows in one round trip and reports
// how many were actually written. Rows whose (repository_id, sha) pair
// already exists are skipped; any other constraint violation fails the
// whole call.
func (q *Queries) CreateCommits(ctx context.Context, arg []CreateCommitsParams) (int64, error) {
	batch := &pgx.Batch{}
	for _, a := range arg {
		batch.Queue(createCommits, a.RepositoryID, a.Sha, a.Message, a.Author, a.Url, a.Date, a.Avatar)
	}

	results := q.db.SendBatch(ctx, batch)
	var inserted int64
	for range arg {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, err
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	return inserted, nil
}

const listCommits = `
SELECT c.id, c.sha, c.message, c.author, c.url, c.date, c.avatar, r.name AS repository
FROM commits c
JOIN repositories r ON r.id = c.repository_id
WHERE ($1::text IS NULL OR c.author = $1)
  AND ($2::text IS NULL OR r.name = $2)
ORDER BY c.id
LIMIT $3 OFFSET $4
`

type ListCommitsParams struct {
	Author         pgtype.Text
	RepositoryName pgtype.Text
	Limit          int32
	Offset         int32
}

type ListCommitsRow struct {
	ID         int64
	Sha        pgtype.Text
	Message    pgtype.Text
	Author     pgtype.Text
	Url        pgtype.Text
	Date       pgtype.Timestamptz
	Avatar     pgtype.Text
	Repository string
}

func (q *Queries) ListCommits(ctx context.Context, arg ListCommitsParams) ([]ListCommitsRow, error) {
	rows, err := q.db.Query(ctx, listCommits, arg.Author, arg.RepositoryName, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListCommitsRow
	for rows.Next() {
		var c ListCommitsRow
		if err := rows.Scan(&c.ID, &c.Sha, &c.Message, &c.Author, &c.Url, &c.Date, &c.Avatar, &c.Repository); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countCommits = `
SELECT count(*)
FROM commits c
JOIN repositories r ON r.id = c.repository_id
WHERE ($1::text IS NULL OR c.author = $1)
  AND ($2::text IS NULL OR r.name = $2)
`

type CountCommitsParams struct {
	Author         pgtype.Text
	RepositoryName pgtype.Text
}

func (q *Queries) CountCommits(ctx context.Context, arg CountCommitsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countCommits, arg.Author, arg.RepositoryName)
	var count int64
	err := row.Scan(&count)
	return count, err
}
