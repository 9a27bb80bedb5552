package jama

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/irisworks/jama-mcp/internal/jsonpatch"
	"github.com/irisworks/jama-mcp/internal/metrics"
	"github.com/irisworks/jama-mcp/internal/ratelimit"
)

const (
	defaultTimeout = 30 * time.Second

	// maxPageSize is the largest page the REST API will serve per request.
	maxPageSize     = 50
	defaultPageSize = 20
)

// RetryPolicy controls how transient request failures are retried.
// Delays grow exponentially from BaseDelay and are capped at MaxDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy retries twice after the initial attempt, waiting
// 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: time.Second,
		MaxDelay:  10 * time.Second,
	}
}

// delay returns the backoff before retry number n (0-based).
func (p RetryPolicy) delay(n int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Config carries the dependencies of a REST client. Host and Tokens are
// required, everything else has working defaults.
type Config struct {
	// Host is the instance root, e.g. https://example.jamacloud.com.
	Host string

	Tokens TokenSource

	// HTTPClient overrides the transport. Defaults to a 30s-timeout client.
	HTTPClient *http.Client

	// Limiter throttles outgoing requests. Defaults to 9 req/s.
	Limiter *ratelimit.Limiter

	Retry RetryPolicy

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Client talks to a Jama Connect instance over REST v1. All methods honor
// the shared rate limiter and retry transient failures per the configured
// policy. Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	limiter *ratelimit.Limiter
	retry   RetryPolicy
	log     *zap.Logger
	metrics *metrics.Metrics
}

var _ API = (*Client)(nil)

// NewClient builds a REST client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("jama host is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(true)
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultRate)
	}
	retry := cfg.Retry
	if retry.Attempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Host, "/") + "/rest/v1",
		http:    httpClient,
		tokens:  cfg.Tokens,
		limiter: limiter,
		retry:   retry,
		log:     logger,
		metrics: cfg.Metrics,
	}, nil
}

// NewHTTPClient returns the transport used for REST calls. verifySSL=false
// disables certificate checks for self-hosted instances with private CAs.
func NewHTTPClient(verifySSL bool) *http.Client {
	client := &http.Client{Timeout: defaultTimeout}
	if !verifySSL {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		client.Transport = transport
	}
	return client
}

// ─── Request core ───────────────────────────────────────────────────────────

// do issues one API request with rate limiting and retries, decoding the
// response body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	respBody, _, err := c.doRaw(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// doRaw is do without response decoding. It returns the raw body and the
// Content-Type header, which the attachment download path needs.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body any) ([]byte, string, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
	}

	var (
		respBody    []byte
		contentType string
		lastErr     error
	)
	for attempt := 0; attempt < c.retry.Attempts; attempt++ {
		if attempt > 0 {
			c.metrics.IncRetry()
			delay := c.retry.delay(attempt - 1)
			c.log.Warn("retrying jama request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := sleep(ctx, delay); err != nil {
				return nil, "", err
			}
		}
		respBody, contentType, lastErr = c.attempt(ctx, method, path, query, payload)
		if lastErr == nil {
			return respBody, contentType, nil
		}
		if !IsRetryable(lastErr) {
			return nil, "", lastErr
		}
	}
	return nil, "", lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, string, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}
	c.metrics.ObserveRateLimitWait(time.Since(waitStart))

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("acquiring access token: %w", err)
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, "", err
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("jama request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, endpointLabel(path), 0, time.Since(start))
		return nil, "", err
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(method, endpointLabel(path), resp.StatusCode, time.Since(start))
	if readErr != nil {
		return nil, "", fmt.Errorf("reading response body: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", errorFromStatus(resp.StatusCode, respBody)
	}
	return respBody, resp.Header.Get("Content-Type"), nil
}

// endpointLabel collapses numeric path segments so metrics stay low
// cardinality: items/42/children becomes items/{id}/children.
func endpointLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if _, err := strconv.Atoi(seg); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, *PageInfo, error) {
	var env listEnvelope[T]
	if err := c.do(ctx, http.MethodGet, path, query, nil, &env); err != nil {
		return nil, nil, err
	}
	return env.Data, env.Meta.PageInfo, nil
}

func getSingle[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var env singleEnvelope[T]
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// create handles POST endpoints whose response carries the new resource
// id in the meta block.
func (c *Client) create(ctx context.Context, path string, body any) (int, error) {
	var env struct {
		Meta Meta `json:"meta"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, body, &env); err != nil {
		return 0, err
	}
	if env.Meta.ID == 0 {
		return 0, fmt.Errorf("POST %s response carried no resource id", path)
	}
	return env.Meta.ID, nil
}

func pageQuery(startAt, maxResults int) url.Values {
	if maxResults <= 0 {
		maxResults = defaultPageSize
	}
	if maxResults > maxPageSize {
		maxResults = maxPageSize
	}
	q := url.Values{}
	q.Set("startAt", strconv.Itoa(max(startAt, 0)))
	q.Set("maxResults", strconv.Itoa(maxResults))
	return q
}

func itemPath(parts ...any) string {
	segs := make([]string, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case int:
			segs[i] = strconv.Itoa(v)
		case string:
			segs[i] = v
		default:
			segs[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(segs, "/")
}

// ─── Connection ──────────────────────────────────────────────────────────────

// Ping performs a minimal authenticated request against the projects
// endpoint to confirm the instance is reachable and the token works.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("startAt", "0")
	q.Set("maxResults", "1")
	return c.do(ctx, http.MethodGet, "projects", q, nil, nil)
}

// ─── Projects ────────────────────────────────────────────────────────────────

func (c *Client) GetProjects(ctx context.Context, startAt, maxResults int) ([]Project, *PageInfo, error) {
	return getList[Project](ctx, c, "projects", pageQuery(startAt, maxResults))
}

func (c *Client) GetProject(ctx context.Context, id int) (*Project, error) {
	return getSingle[Project](ctx, c, itemPath("projects", id))
}

// ─── Items ───────────────────────────────────────────────────────────────────

// GetAbstractItems searches items across projects. Zero-valued query
// fields are omitted from the request.
func (c *Client) GetAbstractItems(ctx context.Context, sq SearchQuery) ([]Item, *PageInfo, error) {
	q := pageQuery(sq.StartAt, sq.MaxResults)
	if sq.Project != 0 {
		q.Set("project", strconv.Itoa(sq.Project))
	}
	if sq.Contains != "" {
		q.Set("contains", sq.Contains)
	}
	if sq.ItemType != 0 {
		q.Set("itemType", strconv.Itoa(sq.ItemType))
	}
	if sq.DocumentKey != "" {
		q.Set("documentKey", sq.DocumentKey)
	}
	return getList[Item](ctx, c, "abstractitems", q)
}

func (c *Client) GetItem(ctx context.Context, id int) (*Item, error) {
	return getSingle[Item](ctx, c, itemPath("items", id))
}

func (c *Client) GetItemChildren(ctx context.Context, id int) ([]Item, error) {
	items, _, err := getList[Item](ctx, c, itemPath("items", id, "children"), nil)
	return items, err
}

func (c *Client) GetItemVersions(ctx context.Context, id, startAt, maxResults int) ([]ItemVersion, *PageInfo, error) {
	return getList[ItemVersion](ctx, c, itemPath("items", id, "versions"), pageQuery(startAt, maxResults))
}

// CreateItem posts a new item and returns its id from the response meta
// block.
func (c *Client) CreateItem(ctx context.Context, req CreateItemRequest) (int, error) {
	return c.create(ctx, "items", req)
}

// PatchItem applies RFC 6902 operations to an item.
func (c *Client) PatchItem(ctx context.Context, id int, ops []jsonpatch.Op) error {
	return c.do(ctx, http.MethodPatch, itemPath("items", id), nil, ops, nil)
}

func (c *Client) DeleteItem(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, itemPath("items", id), nil, nil, nil)
}

// ─── Relationships ───────────────────────────────────────────────────────────

// GetItemRelationships merges the upstream and downstream relationships
// of one item.
func (c *Client) GetItemRelationships(ctx context.Context, itemID int) ([]Relationship, error) {
	up, err := c.GetUpstreamRelationships(ctx, itemID)
	if err != nil {
		return nil, err
	}
	down, err := c.GetDownstreamRelationships(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return append(up, down...), nil
}

func (c *Client) GetProjectRelationships(ctx context.Context, projectID int) ([]Relationship, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	rels, _, err := getList[Relationship](ctx, c, "relationships", q)
	return rels, err
}

func (c *Client) GetRelationship(ctx context.Context, id int) (*Relationship, error) {
	return getSingle[Relationship](ctx, c, itemPath("relationships", id))
}

func (c *Client) GetUpstreamRelationships(ctx context.Context, itemID int) ([]Relationship, error) {
	rels, _, err := getList[Relationship](ctx, c, itemPath("items", itemID, "upstreamrelationships"), nil)
	return rels, err
}

func (c *Client) GetDownstreamRelationships(ctx context.Context, itemID int) ([]Relationship, error) {
	rels, _, err := getList[Relationship](ctx, c, itemPath("items", itemID, "downstreamrelationships"), nil)
	return rels, err
}

func (c *Client) GetUpstreamRelated(ctx context.Context, itemID int) ([]Item, error) {
	items, _, err := getList[Item](ctx, c, itemPath("items", itemID, "upstreamrelated"), nil)
	return items, err
}

func (c *Client) GetDownstreamRelated(ctx context.Context, itemID int) ([]Item, error) {
	items, _, err := getList[Item](ctx, c, itemPath("items", itemID, "downstreamrelated"), nil)
	return items, err
}

func (c *Client) GetRelationshipTypes(ctx context.Context) ([]RelationshipType, error) {
	types, _, err := getList[RelationshipType](ctx, c, "relationshiptypes", nil)
	return types, err
}

func (c *Client) CreateRelationship(ctx context.Context, req CreateRelationshipRequest) (int, error) {
	return c.create(ctx, "relationships", req)
}

func (c *Client) DeleteRelationship(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, itemPath("relationships", id), nil, nil, nil)
}

// ─── Item types ──────────────────────────────────────────────────────────────

func (c *Client) GetItemTypes(ctx context.Context) ([]ItemType, error) {
	types, _, err := getList[ItemType](ctx, c, "itemtypes", nil)
	return types, err
}

func (c *Client) GetItemType(ctx context.Context, id int) (*ItemType, error) {
	return getSingle[ItemType](ctx, c, itemPath("itemtypes", id))
}

func (c *Client) GetProjectItemTypes(ctx context.Context, projectID int) ([]ItemType, error) {
	types, _, err := getList[ItemType](ctx, c, itemPath("projects", projectID, "itemtypes"), nil)
	return types, err
}

// ─── Pick lists ──────────────────────────────────────────────────────────────

func (c *Client) GetPickLists(ctx context.Context) ([]PickList, error) {
	lists, _, err := getList[PickList](ctx, c, "picklists", nil)
	return lists, err
}

func (c *Client) GetPickList(ctx context.Context, id int) (*PickList, error) {
	return getSingle[PickList](ctx, c, itemPath("picklists", id))
}

func (c *Client) GetPickListOptions(ctx context.Context, pickListID int) ([]PickListOption, error) {
	opts, _, err := getList[PickListOption](ctx, c, itemPath("picklists", pickListID, "options"), nil)
	return opts, err
}

func (c *Client) GetPickListOption(ctx context.Context, id int) (*PickListOption, error) {
	return getSingle[PickListOption](ctx, c, itemPath("picklistoptions", id))
}

// ─── Tags ────────────────────────────────────────────────────────────────────

func (c *Client) GetTags(ctx context.Context, projectID int) ([]Tag, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	tags, _, err := getList[Tag](ctx, c, "tags", q)
	return tags, err
}

func (c *Client) GetTaggedItems(ctx context.Context, tagID int) ([]Item, error) {
	items, _, err := getList[Item](ctx, c, itemPath("tags", tagID, "items"), nil)
	return items, err
}

// ─── Test management ─────────────────────────────────────────────────────────

func (c *Client) GetTestPlans(ctx context.Context, projectID int) ([]Item, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	plans, _, err := getList[Item](ctx, c, "testplans", q)
	return plans, err
}

func (c *Client) GetTestCycles(ctx context.Context, testPlanID int) ([]Item, error) {
	cycles, _, err := getList[Item](ctx, c, itemPath("testplans", testPlanID, "testcycles"), nil)
	return cycles, err
}

func (c *Client) GetTestCycle(ctx context.Context, id int) (*Item, error) {
	return getSingle[Item](ctx, c, itemPath("testcycles", id))
}

func (c *Client) GetTestRuns(ctx context.Context, testCycleID int) ([]Item, error) {
	runs, _, err := getList[Item](ctx, c, itemPath("testcycles", testCycleID, "testruns"), nil)
	return runs, err
}

func (c *Client) GetTestRun(ctx context.Context, id int) (*Item, error) {
	return getSingle[Item](ctx, c, itemPath("testruns", id))
}

// ─── Baselines ───────────────────────────────────────────────────────────────

func (c *Client) GetBaselines(ctx context.Context, projectID int) ([]Baseline, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	baselines, _, err := getList[Baseline](ctx, c, "baselines", q)
	return baselines, err
}

func (c *Client) GetBaseline(ctx context.Context, id int) (*Baseline, error) {
	return getSingle[Baseline](ctx, c, itemPath("baselines", id))
}

func (c *Client) GetBaselineItems(ctx context.Context, id int) ([]Item, error) {
	items, _, err := getList[Item](ctx, c, itemPath("baselines", id, "versioneditems"), nil)
	return items, err
}

// ─── Attachments ─────────────────────────────────────────────────────────────

func (c *Client) GetItemAttachments(ctx context.Context, itemID int) ([]Attachment, error) {
	atts, _, err := getList[Attachment](ctx, c, itemPath("items", itemID, "attachments"), nil)
	return atts, err
}

func (c *Client) GetAttachment(ctx context.Context, id int) (*Attachment, error) {
	return getSingle[Attachment](ctx, c, itemPath("attachments", id))
}

// DownloadAttachment fetches the binary content of an attachment along
// with its content type.
func (c *Client) DownloadAttachment(ctx context.Context, id int) ([]byte, string, error) {
	return c.doRaw(ctx, http.MethodGet, itemPath("attachments", id, "file"), nil, nil)
}
