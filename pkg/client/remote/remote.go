// Package remote provides a Client talking to the platform core via REST.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/metrics"
)

// Timeout of each request.
const Timeout = 60 * time.Second

// Client is a client.Client for the platform core.
type Client struct {
	httpclient *http.Client
	endpoint   string
	logger     logger.Logger

	// guards credentials, which change on refresh.
	mu        sync.Mutex
	creds     configs.Credentials
	expiry    time.Time
	hasExpiry bool
}

var _ client.Client = &Client{}

type Option func(*Client)

// WithHTTPClient replaces http.Client. Its Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpclient = hc
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the core with credentials.
//
// # Args
//
// - configs.Credentials: endpoint and authentication
//
// - ...Option
//
// # Returns
//
// - *Client
//
// - error: ErrConfiguration, if the endpoint is missing or not http(s) URL.
// No request is sent in that case.
func New(creds configs.Credentials, options ...Option) (*Client, error) {
	if err := creds.Verify(); err != nil {
		return nil, err
	}
	creds = creds.Sanitize()

	c := &Client{
		httpclient: &http.Client{Timeout: Timeout},
		endpoint:   creds.Endpoint,
		logger:     logger.Null(),
		creds:      creds,
	}
	for _, opt := range options {
		opt(c)
	}
	if creds.AccessToken != "" {
		c.expiry, c.hasExpiry = expiryOf(creds.AccessToken)
	}
	return c, nil
}

// NewFromEnv creates a client with credentials from environment variables.
func NewFromEnv(options ...Option) (*Client, error) {
	return New(configs.FromEnv(), options...)
}

func (*Client) IsLocal() bool {
	return false
}

// Credentials returns the current credentials, including refreshed tokens.
func (c *Client) Credentials() configs.Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// Endpoint of the core.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) apipath(api string, params client.Params) string {
	u := c.endpoint + api
	if len(params) == 0 {
		return u
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return u + "?" + q.Encode()
}

// call sends a request and decodes its response.
//
// When the core answers 401 and the token can be refreshed, the request is retried once
// after refreshing.
func (c *Client) call(ctx context.Context, method string, api string, params client.Params, obj fields.Bag) (any, error) {
	target := c.apipath(api, params)
	op := method + " " + target

	var payload []byte
	if obj != nil {
		buf, err := json.Marshal(obj)
		if err != nil {
			return nil, dherr.NewBackendError(dherr.ErrStatus, op, "cannot encode request", err)
		}
		payload = buf
	}

	if c.refreshable() && c.expiring(time.Now()) {
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warnf("cannot refresh access token before expiry: %s", err)
		}
	}

	retried := false
	for {
		resp, err := c.send(ctx, method, target, payload)
		if err != nil {
			return nil, transportError(op, err)
		}
		body, status, err := func() ([]byte, int, error) {
			defer resp.Body.Close()
			if err := checkAPILevel(resp, op, c.logger); err != nil {
				return nil, resp.StatusCode, err
			}
			if resp.StatusCode == http.StatusUnauthorized && !retried && c.refreshable() {
				return nil, resp.StatusCode, nil
			}
			if !succeeded(resp) {
				return nil, resp.StatusCode, statusError(resp, op)
			}
			buf, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, resp.StatusCode, transportError(op, err)
			}
			return buf, resp.StatusCode, nil
		}()
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			retried = true
			if err := c.Refresh(ctx); err != nil {
				return nil, err
			}
			continue
		}
		return decodeLenient(body, c.logger), nil
	}
}

func (c *Client) send(ctx context.Context, method string, target string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	started := time.Now()
	resp, err := c.httpclient.Do(req)
	status := metrics.StatusNone
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.RecordClientRequest(method, status, time.Since(started))
	c.logger.Debugf("%s %s -> %d", method, target, status)
	return resp, err
}

func asBag(v any) fields.Bag {
	if b := fields.AsBag(v); b != nil {
		return b
	}
	return fields.Bag{}
}

func (c *Client) CreateObject(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error) {
	if obj == nil {
		obj = fields.Bag{}
	}
	resp, err := c.call(ctx, http.MethodPost, api, nil, obj)
	if err != nil {
		return nil, err
	}
	return asBag(resp), nil
}

func (c *Client) ReadObject(ctx context.Context, api string, params client.Params) (fields.Bag, error) {
	resp, err := c.call(ctx, http.MethodGet, api, params, nil)
	if err != nil {
		return nil, err
	}
	return asBag(resp), nil
}

func (c *Client) UpdateObject(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error) {
	if obj == nil {
		obj = fields.Bag{}
	}
	resp, err := c.call(ctx, http.MethodPut, api, nil, obj)
	if err != nil {
		return nil, err
	}
	return asBag(resp), nil
}

// DeleteObject deletes an object. A boolean response is returned as {"deleted": bool}.
func (c *Client) DeleteObject(ctx context.Context, api string, params client.Params) (fields.Bag, error) {
	resp, err := c.call(ctx, http.MethodDelete, api, params, nil)
	if err != nil {
		return nil, err
	}
	if b, ok := resp.(bool); ok {
		return fields.Bag{"deleted": b}, nil
	}
	ret := asBag(resp)
	if !ret.Has("deleted") {
		ret["deleted"] = true
	}
	return ret, nil
}

// ListObjects lists objects, walking through all pages from params["page"] (or 0).
//
// A response of plain JSON array is taken as the whole list.
func (c *Client) ListObjects(ctx context.Context, api string, params client.Params) ([]fields.Bag, error) {
	page := 0
	if p, ok := params["page"]; ok {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, dherr.NewBackendError(dherr.ErrStatus, "list "+api, "page should be a number: "+p, err)
		}
		page = n
	}

	var objects []fields.Bag
	for {
		resp, err := c.call(ctx, http.MethodGet, api, params.With("page", strconv.Itoa(page)), nil)
		if err != nil {
			return nil, err
		}
		if items, ok := resp.([]any); ok {
			return append(objects, bags(items)...), nil
		}
		b := asBag(resp)
		contents := b.Slice("content")
		objects = append(objects, bags(contents)...)

		page += 1
		total, _ := b["totalPages"].(float64)
		if len(contents) == 0 || float64(page) >= total {
			return objects, nil
		}
	}
}

func bags(items []any) []fields.Bag {
	out := make([]fields.Bag, 0, len(items))
	for _, i := range items {
		if b := fields.AsBag(i); b != nil {
			out = append(out, b)
		}
	}
	return out
}
