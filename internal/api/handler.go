package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgtype"

	"github-repo-tracker/internal/database"
	apperrors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/model"
)

const repositoryNotFoundMessage = "The requested repository does not exist"

// RepositorySearcher is the orchestration surface the boundary drives,
// in strict order: search, then create, then sync.
type RepositorySearcher interface {
	Search(ctx context.Context, name string, user model.User) (bool, error)
	CreateRepository(ctx context.Context, name string) (database.Repository, error)
	SyncCommits(ctx context.Context, name string, user model.User, repo database.Repository) (int64, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	search   RepositorySearcher
	db       database.Querier
	logger   *slog.Logger
	pageSize int
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(search RepositorySearcher, db database.Querier, auth *Authenticator, logger *slog.Logger, pageSize int) http.Handler {
	h := &Handler{
		search:   search,
		db:       db,
		logger:   logger,
		pageSize: pageSize,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/repositories", h.createRepository)
		r.Get("/repositories", h.listRepositories)
		r.Get("/commits", h.listCommits)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRepositoryRequest struct {
	Name string `json:"name"`
}

type syncStatus struct {
	Status        string `json:"status"`
	CommitsSynced int64  `json:"commits_synced"`
}

type createRepositoryResponse struct {
	ID   int64      `json:"id"`
	Name string     `json:"name"`
	Sync syncStatus `json:"sync"`
}

// createRepository handles POST /api/repositories: probe the remote
// API, persist the repository, then backfill its commits.
func (h *Handler) createRepository(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided")
		return
	}

	var req createRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	found, err := h.search.Search(r.Context(), req.Name, user)
	if err != nil {
		h.logger.Error("Repository search failed", "name", req.Name, "error", err)
		respondWithError(w, http.StatusBadGateway, "Could not reach the repository provider")
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound, repositoryNotFoundMessage)
		return
	}

	repo, err := h.search.CreateRepository(r.Context(), req.Name)
	if err != nil {
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			respondWithJSON(w, http.StatusBadRequest, vErr.Fields)
			return
		}
		h.logger.Error("Failed to create repository", "name", req.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Sync runs synchronously; a failure is reported in the body but
	// does not change the created status.
	sync := syncStatus{Status: "ok"}
	n, err := h.search.SyncCommits(r.Context(), req.Name, user, repo)
	if err != nil {
		h.logger.Error("Commit sync failed", "name", req.Name, "error", err)
		sync.Status = "failed"
	}
	sync.CommitsSynced = n

	respondWithJSON(w, http.StatusCreated, createRepositoryResponse{
		ID:   repo.ID,
		Name: repo.Name,
		Sync: sync,
	})
}

// listRepositories handles GET /api/repositories.
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.db.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		names = append(names, repo.Name)
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"result": names})
}

type commitResponse struct {
	Message    *string    `json:"message"`
	Sha        *string    `json:"sha"`
	Author     *string    `json:"author"`
	URL        *string    `json:"url"`
	Date       *time.Time `json:"date"`
	Avatar     *string    `json:"avatar"`
	Repository string     `json:"repository"`
}

type commitPage struct {
	Count    int64            `json:"count"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
	Results  []commitResponse `json:"results"`
}

// listCommits handles GET /api/commits with optional exact-match
// author and repository__name filters and page-number pagination.
func (h *Handler) listCommits(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil || v < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'page' parameter.")
			return
		}
		page = v
	}

	author := queryFilter(r, "author")
	repoName := queryFilter(r, "repository__name")

	count, err := h.db.CountCommits(r.Context(), database.CountCommitsParams{
		Author:         author,
		RepositoryName: repoName,
	})
	if err != nil {
		h.logger.Error("Failed to count commits", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	rows, err := h.db.ListCommits(r.Context(), database.ListCommitsParams{
		Author:         author,
		RepositoryName: repoName,
		Limit:          int32(h.pageSize),
		Offset:         int32((page - 1) * h.pageSize),
	})
	if err != nil {
		h.logger.Error("Failed to list commits", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	results := make([]commitResponse, 0, len(rows))
	for _, row := range rows {
		results = append(results, toCommitResponse(row))
	}

	resp := commitPage{Count: count, Results: results}
	if int64(page*h.pageSize) < count {
		resp.Next = pageURL(r, page+1)
	}
	if page > 1 {
		resp.Previous = pageURL(r, page-1)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func queryFilter(r *http.Request, key string) pgtype.Text {
	if !r.URL.Query().Has(key) {
		return pgtype.Text{}
	}
	return pgtype.Text{String: r.URL.Query().Get(key), Valid: true}
}

func pageURL(r *http.Request, page int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func toCommitResponse(row database.ListCommitsRow) commitResponse {
	return commitResponse{
		Message:    textPtr(row.Message),
		Sha:        textPtr(row.Sha),
		Author:     textPtr(row.Author),
		URL:        textPtr(row.Url),
		Date:       timePtr(row.Date),
		Avatar:     textPtr(row.Avatar),
		Repository: row.Repository,
	}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
