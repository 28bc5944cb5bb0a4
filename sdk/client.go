package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dobriak/mini-ipam/models"
)

// Client is the SDK client for the mini-ipam REST API. It is safe for
// concurrent use and fails over between the configured server URLs.
type Client struct {
	// BaseURLs is the list of server URLs.
	BaseURLs []string

	// Token is the API token for write requests (optional).
	Token string

	// HTTPClient is the HTTP client used for requests.
	HTTPClient *http.Client

	// RetryAttempts is the number of times to retry idempotent requests.
	RetryAttempts int

	// RetryWaitMin is the minimum wait time between retries.
	RetryWaitMin time.Duration

	// RetryWaitMax is the maximum wait time between retries.
	RetryWaitMax time.Duration

	// preferredURL is the last URL that answered (protected by mu).
	preferredURL string

	mu sync.RWMutex
}

// NewClient creates a new SDK client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		BaseURLs:      config.BaseURLs,
		Token:         config.Token,
		HTTPClient:    config.HTTPClient,
		RetryAttempts: config.RetryAttempts,
		RetryWaitMin:  config.RetryWaitMin,
		RetryWaitMax:  config.RetryWaitMax,
	}, nil
}

// ListCollections returns every collection ordered by id.
func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var resp models.ListResponse[models.Collection]
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/collections", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetCollection returns one collection.
func (c *Client) GetCollection(ctx context.Context, id int64) (*models.Collection, error) {
	var resp models.ItemResponse[models.Collection]
	if err := c.doJSON(ctx, http.MethodGet, collectionPath(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CreateCollection creates a collection. The server stores the canonical
// network address, so the returned CIDR may differ from req.CIDR.
func (c *Client) CreateCollection(ctx context.Context, req models.CollectionRequest) (*models.Collection, error) {
	var resp models.MutationResponse[models.Collection]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/collections", req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpdateCollection replaces the name and CIDR of collection id.
func (c *Client) UpdateCollection(ctx context.Context, id int64, req models.CollectionRequest) (*models.Collection, error) {
	var resp models.MutationResponse[models.Collection]
	if err := c.doJSON(ctx, http.MethodPut, collectionPath(id), req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DeleteCollection removes collection id. Its nodes keep their collection id.
func (c *Client) DeleteCollection(ctx context.Context, id int64) error {
	var resp deleteResponse
	return c.doJSON(ctx, http.MethodDelete, collectionPath(id), nil, &resp)
}

// CollectionInfo returns block details and the node count of collection id.
func (c *Client) CollectionInfo(ctx context.Context, id int64) (*models.CollectionInfo, error) {
	var resp models.ItemResponse[models.CollectionInfo]
	if err := c.doJSON(ctx, http.MethodGet, collectionPath(id)+"/info", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CollectionNodes returns the nodes assigned to collection id.
func (c *Client) CollectionNodes(ctx context.Context, id int64) ([]models.Node, error) {
	var resp models.ListResponse[models.Node]
	if err := c.doJSON(ctx, http.MethodGet, collectionPath(id)+"/nodes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListNodes returns every node ordered by id.
func (c *Client) ListNodes(ctx context.Context) ([]models.Node, error) {
	var resp models.ListResponse[models.Node]
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/nodes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetNode returns one node.
func (c *Client) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	var resp models.ItemResponse[models.Node]
	if err := c.doJSON(ctx, http.MethodGet, nodePath(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CreateNode creates a node.
func (c *Client) CreateNode(ctx context.Context, req models.NodeRequest) (*models.Node, error) {
	var resp models.MutationResponse[models.Node]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/nodes", req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpdateNode replaces every field of node id.
func (c *Client) UpdateNode(ctx context.Context, id int64, req models.NodeRequest) (*models.Node, error) {
	var resp models.MutationResponse[models.Node]
	if err := c.doJSON(ctx, http.MethodPut, nodePath(id), req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DeleteNode removes node id.
func (c *Client) DeleteNode(ctx context.Context, id int64) error {
	var resp deleteResponse
	return c.doJSON(ctx, http.MethodDelete, nodePath(id), nil, &resp)
}

// Lookup asks the server for the most specific collection containing ip.
// A miss is not an error; the response Match is nil.
func (c *Client) Lookup(ctx context.Context, ip string) (*models.LookupResponse, error) {
	var resp models.LookupResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/lookup?ip="+url.QueryEscape(ip), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Live calls the liveness probe.
func (c *Client) Live(ctx context.Context) (*LivenessResponse, error) {
	var resp LivenessResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health/live", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready calls the readiness probe. A server whose database is down answers
// 503, which is returned as an error matching ErrServerError.
func (c *Client) Ready(ctx context.Context) (*ReadinessResponse, error) {
	var resp ReadinessResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health/ready", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func collectionPath(id int64) string {
	return "/api/v1/collections/" + strconv.FormatInt(id, 10)
}

func nodePath(id int64) string {
	return "/api/v1/nodes/" + strconv.FormatInt(id, 10)
}

// doRequest sends the request to each URL in turn until one answers
// without a transport error or a 5xx.
func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	urls := c.buildURLList()
	if len(urls) == 0 {
		return nil, ErrNoBaseURLs
	}

	var lastErr error

	for _, baseURL := range urls {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.addHeaders(req, payload != nil)

		resp, err := c.doRequestWithRetry(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if resp != nil {
				lastErr = decodeError(resp)
			} else {
				lastErr = err
			}
			c.clearPreferred(baseURL)
			continue
		}

		c.setPreferred(baseURL)
		return resp, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrAllInstancesFailed, lastErr)
}

// buildURLList returns the preferred URL first, then the rest in order.
func (c *Client) buildURLList() []string {
	preferred := c.getPreferred()
	if preferred == "" {
		return c.BaseURLs
	}

	urls := []string{preferred}
	for _, u := range c.BaseURLs {
		if u != preferred {
			urls = append(urls, u)
		}
	}
	return urls
}

func (c *Client) getPreferred() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preferredURL
}

func (c *Client) setPreferred(u string) {
	c.mu.Lock()
	c.preferredURL = u
	c.mu.Unlock()
}

func (c *Client) clearPreferred(u string) {
	c.mu.Lock()
	if c.preferredURL == u {
		c.preferredURL = ""
	}
	c.mu.Unlock()
}

func (c *Client) addHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set(HeaderAPIToken, c.Token)
	}
}

// doJSON marshals reqBody, performs the request and decodes a 2xx body
// into respBody. Other statuses become an *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	resp, err := c.doRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer drainAndCloseBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// decodeError builds an *APIError from resp and closes its body.
func decodeError(resp *http.Response) error {
	defer drainAndCloseBody(resp)

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if ra, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = ra
	}

	var body models.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		apiErr.RequestID = body.RequestID
	}
	return apiErr
}
