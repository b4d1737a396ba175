package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/charlesng35/issuecal/pkg/logger"
	"github.com/charlesng35/issuecal/pkg/metrics"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds a single issue-list request.
	DefaultTimeout = 10 * time.Second

	// Only the first page is requested; repositories with more open issues are truncated.
	issuesPerPage    = 100
	acceptHeader     = "application/vnd.github.v3+json"
	defaultUserAgent = "issuecal"
	maxResponseBytes = 16 << 20
	maxErrorBytes    = 4 << 10
)

// Config describes how to reach the issue tracker API.
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient supplies the underlying transport. The client is copied, never mutated.
	HTTPClient *http.Client
}

// Client issues single-page open-issue listings against the GitHub REST API.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	timeout       time.Duration
	userAgent     string
	authenticated bool
	log           *zap.Logger
}

// NewClient builds a Client. When a token is configured every request carries
// "Authorization: Bearer <token>"; otherwise requests are sent anonymously.
func NewClient(cfg Config) (*Client, error) {
	rawBase := strings.TrimSpace(cfg.BaseURL)
	if rawBase == "" {
		rawBase = DefaultBaseURL
	}
	base, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("github: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("github: base url %q must be absolute", rawBase)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	baseClient := cfg.HTTPClient
	if baseClient == nil {
		baseClient = &http.Client{}
	}

	token := strings.TrimSpace(cfg.Token)
	var httpClient http.Client
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, baseClient)
		httpClient = *oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	} else {
		httpClient = *baseClient
	}
	httpClient.Timeout = timeout

	return &Client{
		baseURL:       base,
		http:          &httpClient,
		timeout:       timeout,
		userAgent:     userAgent,
		authenticated: token != "",
		log:           logger.WithModule("github"),
	}, nil
}

// Authenticated reports whether requests carry a bearer credential.
func (c *Client) Authenticated() bool {
	return c != nil && c.authenticated
}

// FetchOpenIssues lists the open issues of repo ("owner/name"). Pull requests are
// returned too, since the API mixes them into the same listing. The call is never retried.
func (c *Client) FetchOpenIssues(ctx context.Context, repo string) ([]RawIssue, error) {
	if c == nil {
		return nil, &UpstreamError{Repo: repo, Err: errors.New("client not initialised")}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, err := c.issuesURL(repo)
	if err != nil {
		return nil, &UpstreamError{Repo: repo, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Repo: repo, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.userAgent)

	c.log.Info("fetching issues from github api", zap.String("repo", repo))

	start := time.Now()
	issues, err := c.do(req, repo)
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) && upstreamErr.Timeout {
			metrics.UpstreamRequests.WithLabelValues("timeout").Inc()
		} else {
			metrics.UpstreamRequests.WithLabelValues("error").Inc()
		}
		c.log.Error("github api request failed", zap.String("repo", repo), zap.Error(err))
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues("success").Inc()
	c.log.Info("github api returned issues", zap.String("repo", repo), zap.Int("count", len(issues)))
	return issues, nil
}

func (c *Client) do(req *http.Request, repo string) ([]RawIssue, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Repo: repo, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UpstreamError{
			Repo:       repo,
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(resp)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Repo: repo, Timeout: isTimeout(err), Err: fmt.Errorf("read body: %w", err)}
	}

	issues, err := decodeIssues(body)
	if err != nil {
		return nil, &UpstreamError{Repo: repo, Err: err}
	}
	return issues, nil
}

func (c *Client) issuesURL(repo string) (string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("repository %q must have the form owner/name", repo)
	}

	endpoint := c.baseURL.JoinPath("repos", owner, name, "issues")
	endpoint.RawQuery = url.Values{
		"state":    {"open"},
		"per_page": {strconv.Itoa(issuesPerPage)},
	}.Encode()
	return endpoint.String(), nil
}

func decodeIssues(body []byte) ([]RawIssue, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("response body is not valid json")
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, errors.New("response body is not a json array")
	}

	items := doc.Array()
	issues := make([]RawIssue, 0, len(items))
	for idx, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("record %d is not a json object", idx)
		}
		issues = append(issues, RawIssue{doc: item})
	}
	return issues, nil
}

// errorMessage prefers the "message" field GitHub puts in error bodies.
func errorMessage(resp *http.Response) string {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	if msg := gjson.GetBytes(snippet, "message").String(); msg != "" {
		return msg
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "status " + strconv.Itoa(resp.StatusCode)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
