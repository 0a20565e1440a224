package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-shop-admin/token"
)

type refreshRequest struct {
	Token string `json:"token"`
}

// refresh exchanges the refresh token of stale for a new pair and stores it.
// With single flight on, concurrent callers holding the same refresh token share
// one call, and a caller whose access token was already replaced skips the call.
func (c *Client) refresh(ctx context.Context, stale token.Pair) error {
	if !c.singleFlight {
		return c.exchange(ctx, stale.RefreshToken)
	}

	current, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tokens: %w", err)
	}
	if !current.HasRefresh() {
		return newSessionEndedError(c.refreshPath)
	}
	if current.HasAccess() && current.AccessToken != stale.AccessToken {
		return nil
	}

	ch := c.refreshes.DoChan(stale.RefreshToken, func() (interface{}, error) {
		return nil, c.exchange(context.WithoutCancel(ctx), stale.RefreshToken)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// exchange posts the refresh token outside the business pipeline: no bearer, no retry.
// Only HTTP 201 counts as success.
func (c *Client) exchange(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(refreshRequest{Token: refreshToken})
	if err != nil {
		return fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req := Request{Method: http.MethodPost, Path: c.refreshPath}
	status, payload, err := c.roundTrip(ctx, req, body, token.Pair{}, 0)
	if err != nil {
		return newNetworkError(req.Method, req.Path, err)
	}

	if status != http.StatusCreated {
		refreshErr := newStatusError(req.Method, req.Path, status, payload)
		refreshErr.Kind = KindRefresh
		c.logger.Warn().Int("status", status).Msg("token refresh rejected")
		c.authFailed(ctx, refreshErr)
		return refreshErr
	}

	var issued token.Response
	if err := decodeData(payload, &issued); err != nil {
		return &Error{Kind: KindRefresh, Status: status, Message: "invalid refresh response", Method: req.Method, Path: req.Path, Err: err}
	}
	pair := issued.Pair()
	if !pair.HasRefresh() {
		pair.RefreshToken = refreshToken
	}
	if !pair.HasAccess() {
		refreshErr := &Error{Kind: KindRefresh, Status: status, Message: "refresh response carried no token", Method: req.Method, Path: req.Path}
		c.authFailed(ctx, refreshErr)
		return refreshErr
	}

	return c.storeRefreshed(ctx, refreshToken, pair)
}

// storeRefreshed writes pair only while the store still belongs to the session
// that started the refresh. A logout (or a new login) during the call wins.
func (c *Client) storeRefreshed(ctx context.Context, used string, pair token.Pair) error {
	c.storeLock.Lock()
	defer c.storeLock.Unlock()

	current, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tokens: %w", err)
	}
	if !c.ownsSession(current, used) {
		c.logger.Info().Msg("session ended during token refresh, discarding new pair")
		return newSessionEndedError(c.refreshPath)
	}

	if err := c.store.Set(ctx, pair); err != nil {
		return fmt.Errorf("failed to store refreshed tokens: %w", err)
	}
	c.issued[pair.RefreshToken] = struct{}{}
	c.logger.Debug().Msg("token pair refreshed")
	return nil
}

func (c *Client) ownsSession(current token.Pair, used string) bool {
	if !current.HasRefresh() {
		return false
	}
	if current.RefreshToken == used {
		return true
	}
	_, ok := c.issued[current.RefreshToken]
	return ok
}
