package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github-repo-tracker/internal/database"
)

const (
	// batchSize is the number of rows per bulk-insert chunk. All chunks
	// of one sync run inside a single transaction.
	batchSize = 100

	// sinceDays is the trailing window of commit history to backfill.
	sinceDays = 30
)

// Fetcher issues the outbound API call.
type Fetcher interface {
	Get(ctx context.Context, path, accessToken string, params url.Values) (json.RawMessage, error)
}

// TxBeginner opens the transaction the bulk insert runs in. Satisfied
// by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CommitSync fetches the recent commits of one repository and persists
// them. A value is scoped to a single repository path, access token and
// persisted repository identity.
type CommitSync struct {
	client Fetcher
	db     TxBeginner
	logger *slog.Logger
	path   string
	token  string
	repo   database.Repository
	now    func() time.Time
}

// New creates a CommitSync for the commits endpoint at path, typically
// "repos/{owner}/{name}/commits".
func New(client Fetcher, db TxBeginner, logger *slog.Logger, path, accessToken string, repo database.Repository) *CommitSync {
	return &CommitSync{
		client: client,
		db:     db,
		logger: logger,
		path:   path,
		token:  accessToken,
		repo:   repo,
		now:    time.Now,
	}
}

// Run fetches the commits created inside the trailing window and stores
// them, reporting how many rows were inserted. Nothing is written when
// the fetch fails.
func (s *CommitSync) Run(ctx context.Context) (int64, error) {
	s.logger.Info("Fetching commits for repository", "repository", s.repo.Name)

	since := s.now().UTC().AddDate(0, 0, -sinceDays).Format(time.RFC3339)
	raw, err := s.client.Get(ctx, s.path, s.token, url.Values{"since": {since}})
	if err != nil {
		return 0, fmt.Errorf("fetching commits: %w", err)
	}

	var commits []*gh.RepositoryCommit
	if err := json.Unmarshal(raw, &commits); err != nil {
		return 0, fmt.Errorf("decoding commits payload: %w", err)
	}

	return s.saveCommits(ctx, commits)
}

// saveCommits writes all rows inside one transaction so a constraint
// violation in any chunk leaves nothing behind.
func (s *CommitSync) saveCommits(ctx context.Context, commits []*gh.RepositoryCommit) (int64, error) {
	if len(commits) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // no-op once committed

	inserted, err := s.insertBatches(ctx, database.New(tx), commits)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.logger.Info("Inserted commits", "repository", s.repo.Name, "count", inserted)
	return inserted, nil
}

func (s *CommitSync) insertBatches(ctx context.Context, q database.Querier, commits []*gh.RepositoryCommit) (int64, error) {
	rows := s.sanitizeCommits(commits)

	var inserted int64
	for len(rows) > 0 {
		chunk := rows
		if len(chunk) > batchSize {
			chunk = rows[:batchSize]
		}
		rows = rows[len(chunk):]

		n, err := q.CreateCommits(ctx, chunk)
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	return inserted, nil
}

// sanitizeCommits maps the raw payload onto insert rows. Fields absent
// upstream become NULL columns rather than errors.
func (s *CommitSync) sanitizeCommits(commits []*gh.RepositoryCommit) []database.CreateCommitsParams {
	rows := make([]database.CreateCommitsParams, 0, len(commits))
	for _, c := range commits {
		rows = append(rows, database.CreateCommitsParams{
			RepositoryID: s.repo.ID,
			Sha:          textOrNull(c.GetSHA()),
			Message:      textOrNull(c.GetCommit().GetMessage()),
			Author:       textOrNull(c.GetCommit().GetAuthor().GetName()),
			Url:          textOrNull(c.GetCommit().GetURL()),
			Date:         timeOrNull(c.GetCommit().GetAuthor().GetDate().Time),
			Avatar:       textOrNull(c.GetAuthor().GetAvatarURL()),
		})
	}
	return rows
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func timeOrNull(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
