package database

import "github.com/jackc/pgx/v5/pgtype"

type Repository struct {
	ID        int64
	Name      string
	CreatedAt pgtype.Timestamptz
}

type Commit struct {
	ID           int64
	RepositoryID int64
	Sha          pgtype.Text
	Message      pgtype.Text
	Author       pgtype.Text
	Url          pgtype.Text
	Date         pgtype.Timestamptz
	Avatar       pgtype.Text
	CreatedAt    pgtype.Timestamptz
}
