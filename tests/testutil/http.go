package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Client sends JSON requests straight to an http.Handler.
type Client struct {
	t       *testing.T
	handler http.Handler
	headers map[string]string
}

// NewClient creates a Client for handler.
func NewClient(t *testing.T, handler http.Handler) *Client {
	return &Client{t: t, handler: handler, headers: map[string]string{}}
}

// WithHeader returns a copy of the client that also sends the header.
func (c *Client) WithHeader(key, value string) *Client {
	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers[key] = value
	return &Client{t: c.t, handler: c.handler, headers: headers}
}

// Do sends the request. body is JSON-encoded unless it is nil or a string.
func (c *Client) Do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(c.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

// DecodeData unmarshals the data member of a success envelope into T.
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

// AssertErrorCode checks the status and the error code of an error envelope.
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) bool {
	t.Helper()

	var envelope struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if !assert.Equal(t, status, w.Code, w.Body.String()) {
		return false
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error, w.Body.String())
	return assert.False(t, envelope.Success) && assert.Equal(t, code, envelope.Error.Code)
}
