package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobriak/mini-ipam/models"
)

// TestClient issues raw HTTP requests against a test server.
type TestClient struct {
	BaseURL string
	Token   string
	t       *testing.T
}

// NewTestClient creates a new test HTTP client for baseURL.
func NewTestClient(t *testing.T, baseURL string) *TestClient {
	return &TestClient{BaseURL: baseURL, t: t}
}

// Response represents an HTTP response with helpers.
type Response struct {
	*http.Response
	Body []byte
	t    *testing.T
}

// Do executes an HTTP request. Body may be nil, a string sent verbatim, or
// a value marshaled as JSON.
func (c *TestClient) Do(method, path string, body any) *Response {
	c.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(c.t, err, "failed to marshal request body")
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	require.NoError(c.t, err, "failed to create request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("X-Mini-IPAM-Token", c.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err, "request failed")
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err, "failed to read response body")

	return &Response{Response: resp, Body: data, t: c.t}
}

// GET executes a GET request.
func (c *TestClient) GET(path string) *Response {
	return c.Do(http.MethodGet, path, nil)
}

// POST executes a POST request.
func (c *TestClient) POST(path string, body any) *Response {
	return c.Do(http.MethodPost, path, body)
}

// PUT executes a PUT request.
func (c *TestClient) PUT(path string, body any) *Response {
	return c.Do(http.MethodPut, path, body)
}

// DELETE executes a DELETE request.
func (c *TestClient) DELETE(path string) *Response {
	return c.Do(http.MethodDelete, path, nil)
}

// RequireStatus requires the response status code.
func (r *Response) RequireStatus(expected int) *Response {
	r.t.Helper()
	require.Equal(r.t, expected, r.StatusCode, "unexpected status code\nBody: %s", string(r.Body))
	return r
}

// RequireJSON unmarshals JSON and requires no error.
func (r *Response) RequireJSON(v any) *Response {
	r.t.Helper()
	require.NoError(r.t, json.Unmarshal(r.Body, v), "failed to unmarshal JSON: %s", string(r.Body))
	return r
}

// AssertError asserts status, error code and message of an error response.
func (r *Response) AssertError(status int, code, message string) *Response {
	r.t.Helper()
	r.RequireStatus(status)

	var errResp models.ErrorResponse
	r.RequireJSON(&errResp)
	assert.Equal(r.t, code, errResp.Code, "unexpected error code\nBody: %s", string(r.Body))
	if message != "" {
		assert.Equal(r.t, message, errResp.Error)
	}
	return r
}
