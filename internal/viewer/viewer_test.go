package viewer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/smp.report/internal/testutil"
	"github.com/banshee-data/smp.report/internal/timeutil"
)

const page = "<html><body><div id=\"chart\"></div></body></html>"

func startViewer(t *testing.T, clock timeutil.Clock) (*Viewer, context.CancelFunc, <-chan error) {
	t.Helper()
	var out bytes.Buffer
	v, err := Listen([]byte(page), Options{Listen: "127.0.0.1:0", GracePeriod: 2 * time.Second, Clock: clock, Out: &out})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()
	t.Cleanup(cancel)
	return v, cancel, done
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postClosed(t *testing.T, v *Viewer) {
	t.Helper()
	resp, err := http.Post(v.URL()+"closed", "text/plain", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	testutil.AssertStatusCode(t, resp.StatusCode, http.StatusNoContent)
}

func TestInjectBeacon(t *testing.T) {
	got := string(InjectBeacon([]byte(page)))
	assert.True(t, strings.HasSuffix(got, closeBeacon+"</body></html>"))

	bare := string(InjectBeacon([]byte("<p>chart</p>")))
	assert.Equal(t, "<p>chart</p>"+closeBeacon, bare)
}

func TestHandlers(t *testing.T) {
	v, err := Listen([]byte(page), Options{Clock: timeutil.NewMockClock(testutil.FixedTime)})
	require.NoError(t, err)
	t.Cleanup(func() { v.ln.Close() })

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"page", http.MethodGet, "/", http.StatusOK},
		{"unknown path", http.MethodGet, "/favicon.ico", http.StatusNotFound},
		{"post page", http.MethodPost, "/", http.StatusMethodNotAllowed},
		{"closed", http.MethodPost, "/closed", http.StatusNoContent},
		{"get closed", http.MethodGet, "/closed", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			v.server.Handler.ServeHTTP(rec, testutil.NewTestRequest(tt.method, tt.path))
			testutil.AssertStatusCode(t, rec.Code, tt.want)
		})
	}
}

func TestRun_ServesPageAndExitsAfterClose(t *testing.T) {
	clock := timeutil.NewMockClock(testutil.FixedTime)
	v, _, done := startViewer(t, clock)

	code, body := get(t, v.URL())
	testutil.AssertStatusCode(t, code, http.StatusOK)
	assert.Contains(t, body, `<div id="chart">`)
	assert.Contains(t, body, "sendBeacon")

	postClosed(t, v)
	clock.Advance(time.Second)
	select {
	case <-done:
		t.Fatal("viewer exited before the grace period")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(time.Second)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not exit after the grace period")
	}
}

func TestRun_ReloadKeepsServing(t *testing.T) {
	clock := timeutil.NewMockClock(testutil.FixedTime)
	v, cancel, done := startViewer(t, clock)

	postClosed(t, v)
	code, _ := get(t, v.URL())
	testutil.AssertStatusCode(t, code, http.StatusOK)
	clock.Advance(5 * time.Second)

	select {
	case <-done:
		t.Fatal("viewer exited after a reload")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not exit on cancel")
	}
}

func TestListen_BadAddress(t *testing.T) {
	_, err := Listen([]byte(page), Options{Listen: "256.0.0.1:http"})
	require.Error(t, err)
}
