//go:build integration

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github-repo-tracker/internal/api"
	"github-repo-tracker/internal/database"
	"github-repo-tracker/internal/github"
	"github-repo-tracker/internal/model"
	"github-repo-tracker/internal/search"
)

func setupTestDatabase(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(dbpool.Close)

	return dbpool
}

func TestCreateAndSync_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool := setupTestDatabase(ctx, t)

	// Fake GitHub API
	ghServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/test-repo":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"id": 123, "name": "test-repo", "owner": {"login": "octocat"}}`))
		case "/repos/octocat/test-repo/commits":
			assert.NotEmpty(t, r.URL.Query().Get("since"))
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[
				{"sha": "abc", "commit": {"author": {"name": "tester", "date": "2024-01-01T12:00:00Z"}, "message": "feat: new feature", "url": "url1"}, "author": {"avatar_url": "avatar1"}},
				{"sha": "def", "commit": {"author": {"name": "tester", "date": "2024-01-02T12:00:00Z"}, "message": "fix: a bug", "url": "url2"}, "author": {"avatar_url": "avatar2"}}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ghServer.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ghClient, err := github.NewClient(ghServer.URL, time.Second, logger)
	require.NoError(t, err)

	queries := database.New(dbpool)
	svc := search.NewService(ghClient, queries, dbpool, logger)
	auth := api.NewAuthenticator("test-secret")
	router := api.NewRouter(svc, queries, auth, logger, 25)

	user := model.User{Username: "octocat", AccessToken: "gh-token"}
	token, err := auth.IssueToken(user, time.Now().Add(time.Hour))
	require.NoError(t, err)

	// Create the repository through the boundary.
	req := httptest.NewRequest(http.MethodPost, "/api/repositories",
		strings.NewReader(`{"name": "test-repo"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Sync struct {
			Status        string `json:"status"`
			CommitsSynced int64  `json:"commits_synced"`
		} `json:"sync"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "test-repo", created.Name)
	assert.Equal(t, "ok", created.Sync.Status)
	assert.Equal(t, int64(2), created.Sync.CommitsSynced)

	// The rows landed in the store.
	repo, err := queries.GetRepositoryByName(ctx, "test-repo")
	require.NoError(t, err)
	count, err := queries.CountCommits(ctx, database.CountCommitsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// A repeated sync for the same repository inserts nothing new.
	n, err := svc.SyncCommits(ctx, "test-repo", user, repo)
	require.NoError(t, err)
	assert.Zero(t, n)
	count, err = queries.CountCommits(ctx, database.CountCommitsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The commits list endpoint serves the synced rows.
	req = httptest.NewRequest(http.MethodGet, "/api/commits?author=tester&repository__name=test-repo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count   int64 `json:"count"`
		Results []struct {
			Sha        *string `json:"sha"`
			Message    *string `json:"message"`
			Repository string  `json:"repository"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "test-repo", page.Results[0].Repository)
}
