package feedback_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	"github.com/jrsteele09/go-shop-admin/feedback"
	"github.com/jrsteele09/go-shop-admin/sessions"
	tokenfakerepo "github.com/jrsteele09/go-shop-admin/token/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	shown []feedback.Notification
}

func (r *recordingNotifier) Notify(n feedback.Notification) {
	r.shown = append(r.shown, n)
}

// requestError runs one GET against a server answering status with body, and returns the client's error.
func requestError(t *testing.T, status int, body string) error {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, tokenfakerepo.NewFakeTokenStore(), apiclient.WithLogger(zerolog.Nop()))
	return c.Get(context.Background(), apiclient.RouteProducts, nil, nil)
}

func TestReporter_Report(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		message  string
		navigate bool
	}{
		{name: "401 with message", status: 401, body: `{"message":"Token expired"}`, message: "Token expired", navigate: true},
		{name: "401 without message", status: 401, body: ``, message: feedback.MessageGeneric, navigate: true},
		{name: "403", status: 403, body: `{"message":"Admins only"}`, message: "Admins only"},
		{name: "404", status: 404, body: `{}`, message: feedback.MessageGeneric},
		{name: "validation", status: 422, body: `{"message":"Price must be positive"}`, message: "Price must be positive"},
		{name: "server", status: 503, body: `{"message":"db down"}`, message: feedback.MessageServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			var navigated []string
			r := feedback.NewReporter(notifier, sessions.NavigatorFunc(func(p string) { navigated = append(navigated, p) }), feedback.WithLogger(zerolog.Nop()))

			n, shown := r.Report(requestError(t, tt.status, tt.body))
			require.True(t, shown)
			require.Equal(t, feedback.LevelError, n.Level)
			require.Equal(t, tt.message, n.Message)
			require.Equal(t, []feedback.Notification{n}, notifier.shown)
			if tt.navigate {
				require.Equal(t, []string{sessions.PathLogin}, navigated)
			} else {
				require.Empty(t, navigated)
			}
		})
	}
}

func TestReporter_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := apiclient.New(srv.URL, tokenfakerepo.NewFakeTokenStore(), apiclient.WithLogger(zerolog.Nop()))
	err := c.Get(context.Background(), apiclient.RouteProducts, nil, nil)

	notifier := &recordingNotifier{}
	n, shown := feedback.NewReporter(notifier, nil, feedback.WithLogger(zerolog.Nop())).Report(err)
	require.True(t, shown)
	require.Equal(t, feedback.MessageNetwork, n.Message)
}

func TestReporter_NothingToShow(t *testing.T) {
	notifier := &recordingNotifier{}
	r := feedback.NewReporter(notifier, nil, feedback.WithLogger(zerolog.Nop()))

	_, shown := r.Report(nil)
	require.False(t, shown)
	_, shown = r.Report(context.Canceled)
	require.False(t, shown)
	require.Empty(t, notifier.shown)

	n, shown := r.Report(errors.New("boom"))
	require.True(t, shown)
	require.Equal(t, feedback.MessageGeneric, n.Message)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	notifier := feedback.NewLogNotifier(zerolog.New(&buf))
	r := feedback.NewReporter(notifier, nil, feedback.WithLogger(zerolog.Nop()))

	r.Success("Product created")
	require.Contains(t, buf.String(), `"level":"info"`)
	require.Contains(t, buf.String(), `"message":"Product created"`)

	buf.Reset()
	r.Warn("No products selected")
	require.Contains(t, buf.String(), `"level":"warn"`)
}
