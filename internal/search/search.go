package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github-repo-tracker/internal/database"
	apperrors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/github"
	"github-repo-tracker/internal/model"
	"github-repo-tracker/internal/syncer"
)

const (
	repoPathPrefix = "repos"
	commitsPath    = "commits"

	// maxNameLength mirrors the repositories.name column width.
	maxNameLength = 100
)

// Client issues the outbound API calls.
type Client interface {
	Get(ctx context.Context, path, accessToken string, params url.Values) (json.RawMessage, error)
}

// Service orchestrates the search-and-sync workflow: probe the remote
// API for a repository, persist it locally, then backfill its commits.
type Service struct {
	client Client
	db     database.Querier
	pool   syncer.TxBeginner
	logger *slog.Logger
}

func NewService(client Client, db database.Querier, pool syncer.TxBeginner, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		db:     db,
		pool:   pool,
		logger: logger,
	}
}

// Search probes the remote API for {username}/{name}. It reports false
// with a nil error when the repository does not exist upstream; a
// transport or remote failure is returned as an error so callers can
// tell the two apart.
func (s *Service) Search(ctx context.Context, name string, user model.User) (bool, error) {
	s.logger.Info("Searching for repository", "name", name)

	_, err := s.client.Get(ctx, repoPath(user.Username, name), user.AccessToken, nil)
	if errors.Is(err, github.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateRepository validates the name and persists the record. Nothing
// is written when validation fails.
func (s *Service) CreateRepository(ctx context.Context, name string) (database.Repository, error) {
	if err := validateName(name); err != nil {
		return database.Repository{}, err
	}
	return s.db.CreateRepository(ctx, name)
}

// SyncCommits backfills the recent commits of a just-created repository
// and reports how many rows were inserted. The repository must already
// be persisted; commits reference its id.
func (s *Service) SyncCommits(ctx context.Context, name string, user model.User, repo database.Repository) (int64, error) {
	path := repoPath(user.Username, name) + "/" + commitsPath
	sync := syncer.New(s.client, s.pool, s.logger, path, user.AccessToken, repo)
	return sync.Run(ctx)
}

func repoPath(username, name string) string {
	return strings.Join([]string{repoPathPrefix, username, name}, "/")
}

func validateName(name string) error {
	switch {
	case name == "":
		return apperrors.NewFieldError("name", "This field may not be blank.")
	case utf8.RuneCountInString(name) > maxNameLength:
		return apperrors.NewFieldError("name",
			fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	return nil
}
