package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-shop-admin/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-ID"
	contentTypeJSON   = "application/json"
)

// Request describes one call to the admin API.
// Body is JSON encoded unless RawBody is set.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     []byte
	ContentType string
	Header      http.Header
}

// Exchange reports one HTTP round trip to an observer.
type Exchange struct {
	Method    string
	Path      string
	Status    int
	Attempt   int
	RequestID string
	Duration  time.Duration
	Err       error
}

// Client sends every admin API request through the same pipeline: bearer and
// content-type attachment on the way out, one refresh-and-retry on 401 on the way
// back, and envelope unwrapping on success.
type Client struct {
	baseURL      string
	refreshPath  string
	store        token.Store
	http         *http.Client
	logger       zerolog.Logger
	observer     func(Exchange)
	singleFlight bool
	refreshes    singleflight.Group

	// storeLock serialises refresh writes. issued holds the refresh tokens this
	// client has stored, so a rotation by a sibling refresh is told apart from a logout.
	storeLock sync.Mutex
	issued    map[string]struct{}

	handlerLock   sync.RWMutex
	onAuthFailure func(ctx context.Context, err error)
}

func New(baseURL string, store token.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		refreshPath:  RouteAuthRefresh,
		store:        store,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       log.Logger,
		singleFlight: true,
		issued:       map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAuthFailureHandler replaces the handler installed with WithAuthFailureHandler.
func (c *Client) SetAuthFailureHandler(handler func(ctx context.Context, err error)) {
	c.handlerLock.Lock()
	defer c.handlerLock.Unlock()
	c.onAuthFailure = handler
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete sends an optional JSON body, as /products/delete-multiple expects one.
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Body: body}, out)
}

// Do sends req and decodes the envelope's data into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	body, err := req.encodeBody()
	if err != nil {
		return err
	}
	return c.send(ctx, req, body, 0, out)
}

// send performs attempt number attempt of req. A 401 on attempt 0 refreshes the
// token pair and calls send again with attempt 1; attempt 1 never refreshes.
func (c *Client) send(ctx context.Context, req Request, body []byte, attempt int, out any) error {
	pair, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tokens: %w", err)
	}

	status, payload, err := c.roundTrip(ctx, req, body, pair, attempt)
	if err != nil {
		return newNetworkError(req.Method, req.Path, err)
	}

	if status >= 200 && status < 300 {
		return decodeData(payload, out)
	}

	apiErr := newStatusError(req.Method, req.Path, status, payload)
	if status != http.StatusUnauthorized {
		return apiErr
	}

	if c.isRefreshPath(req.Path) {
		apiErr.Kind = KindRefresh
		return apiErr
	}
	if attempt > 0 || !pair.HasRefresh() {
		return apiErr
	}

	if err := c.refresh(ctx, pair); err != nil {
		return err
	}
	return c.send(ctx, req, body, attempt+1, out)
}

func (c *Client) roundTrip(ctx context.Context, req Request, body []byte, pair token.Pair, attempt int) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path, req.Query), bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	if pair.HasAccess() {
		token.AsOAuth2(pair).SetAuthHeader(httpReq)
	}
	switch {
	case req.ContentType != "":
		httpReq.Header.Set(headerContentType, req.ContentType)
	case httpReq.Header.Get(headerContentType) == "":
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}
	requestID := uuid.New().String()
	httpReq.Header.Set(headerRequestID, requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(Exchange{Method: req.Method, Path: req.Path, Attempt: attempt, RequestID: requestID, Duration: time.Since(start), Err: err})
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).Msg("request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	c.observe(Exchange{Method: req.Method, Path: req.Path, Status: resp.StatusCode, Attempt: attempt, RequestID: requestID, Duration: time.Since(start), Err: err})
	if err != nil {
		return 0, nil, err
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Int("attempt", attempt).
		Str("request_id", requestID).
		Msg("request")
	return resp.StatusCode, payload, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		if strings.Contains(u, "?") {
			u += "&" + query.Encode()
		} else {
			u += "?" + query.Encode()
		}
	}
	return u
}

func (c *Client) isRefreshPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimRight(path, "/") == strings.TrimRight(c.refreshPath, "/")
}

func (c *Client) observe(e Exchange) {
	if c.observer != nil {
		c.observer(e)
	}
}

func (c *Client) authFailed(ctx context.Context, err error) {
	c.handlerLock.RLock()
	handler := c.onAuthFailure
	c.handlerLock.RUnlock()
	if handler != nil {
		handler(ctx, err)
	}
}

func (r Request) encodeBody() ([]byte, error) {
	if r.RawBody != nil {
		return r.RawBody, nil
	}
	if r.Body == nil {
		return nil, nil
	}
	body, err := json.Marshal(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s %s body: %w", r.Method, r.Path, err)
	}
	return body, nil
}
