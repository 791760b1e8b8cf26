package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
)

// AcceptHeader is the media type sent with every search request
const AcceptHeader = "application/vnd.github.v3+json"

// Options configures the GitHub searcher
type Options struct {
	Token       string
	BaseURL     string // defaults to https://api.github.com/
	PerPage     int
	Timeout     time.Duration
	RateLimiter RateLimiter
	Logger      *slog.Logger
}

// githubSearcher implements Searcher using the GitHub search API
type githubSearcher struct {
	client      *github.Client
	rateLimiter RateLimiter
	perPage     int
	logger      *slog.Logger
}

// NewGitHubSearcher creates a new GitHub searcher
func NewGitHubSearcher(opts Options) (Searcher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := &acceptTransport{base: http.DefaultTransport}
	httpClient := &http.Client{Transport: transport}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
	}
	httpClient.Timeout = opts.Timeout

	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL := opts.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}

	limiter := opts.RateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(100*time.Millisecond, logger)
	}

	return &githubSearcher{
		client:      client,
		rateLimiter: limiter,
		perPage:     opts.PerPage,
		logger:      logger,
	}, nil
}

// Search implements Searcher
func (s *githubSearcher) Search(ctx context.Context, keyword string) <-chan domain.Response[[]*domain.Repository] {
	return domain.Stream(func() domain.Response[[]*domain.Repository] {
		if strings.TrimSpace(keyword) == "" {
			return domain.Failure[[]*domain.Repository](apperrors.ErrCodeInvalidRequest)
		}

		repos, err := s.search(ctx, keyword)
		if err != nil {
			code := Classify(err)
			s.logger.Error("failed to search repositories",
				"keyword", keyword,
				"code", code,
				"error", err,
			)
			return domain.Failure[[]*domain.Repository](code)
		}

		s.logger.Debug("searched repositories", "keyword", keyword, "count", len(repos))
		return domain.Success(repos)
	})
}

func (s *githubSearcher) search(ctx context.Context, keyword string) ([]*domain.Repository, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: s.perPage},
	}
	result, resp, err := s.client.Search.Repositories(ctx, keyword, opts)
	s.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories for %q: %w", keyword, err)
	}

	repos := make([]*domain.Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		if r == nil {
			continue
		}
		repos = append(repos, toDomain(r))
	}
	return repos, nil
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (s *githubSearcher) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Limit > 0 {
		s.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}

// Classify maps a search failure to an error code
func Classify(err error) apperrors.ErrCode {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse
	var netErr net.Error
	var urlErr *url.Error

	switch {
	case err == nil:
		return ""
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return apperrors.ErrCodeRateLimited
	case errors.As(err, &respErr):
		if respErr.Response == nil {
			return apperrors.ErrCodeGeneric
		}
		return apperrors.FromStatus(respErr.Response.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrCodeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return apperrors.ErrCodeTimeout
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return apperrors.ErrCodeNetworkUnavailable
	default:
		return apperrors.ErrCodeGeneric
	}
}

func toDomain(r *github.Repository) *domain.Repository {
	repo := &domain.Repository{
		ID:              r.GetID(),
		Name:            r.Name,
		Language:        r.Language,
		HTMLURL:         r.HTMLURL,
		ForksCount:      toInt64(r.ForksCount),
		OpenIssuesCount: toInt64(r.OpenIssuesCount),
		StargazersCount: toInt64(r.StargazersCount),
		WatchersCount:   toInt64(r.WatchersCount),
	}
	if r.Owner != nil {
		repo.OwnerLogin = r.Owner.Login
		repo.OwnerAvatarURL = r.Owner.AvatarURL
	}
	return repo
}

func toInt64(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

// acceptTransport pins the Accept header of every outgoing request
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", AcceptHeader)
	return t.base.RoundTrip(req)
}
