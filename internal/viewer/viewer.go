// Package viewer serves a rendered chart on a local HTTP port and blocks
// until the page is closed or the context is cancelled.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/smp.report/internal/monitoring"
	"github.com/banshee-data/smp.report/internal/timeutil"
)

// closeBeacon notifies the server when the page goes away.
const closeBeacon = `<script>window.addEventListener("pagehide", function () { navigator.sendBeacon("/closed"); });</script>`

const shutdownTimeout = 5 * time.Second

// Options configures a Viewer.
type Options struct {
	// Listen is the TCP address to bind, e.g. "127.0.0.1:0".
	Listen string
	// GracePeriod is how long to wait after the page closes before
	// returning, so that a reload keeps the viewer alive.
	GracePeriod time.Duration
	// OpenBrowser launches the default browser once listening.
	OpenBrowser bool
	Clock       timeutil.Clock
	// Out receives the URL line; nil discards it.
	Out io.Writer
}

// DefaultOptions binds an ephemeral loopback port with a two second grace.
func DefaultOptions() Options {
	return Options{Listen: "127.0.0.1:0", GracePeriod: 2 * time.Second, OpenBrowser: true}
}

// Viewer is a single-page HTTP server for one chart.
type Viewer struct {
	page   []byte
	opts   Options
	ln     net.Listener
	server *http.Server

	mu      sync.Mutex
	timer   timeutil.Timer
	armed   bool
	changed chan struct{}
}

// Listen binds the viewer's address without serving yet.
func Listen(page []byte, o Options) (*Viewer, error) {
	if o.Listen == "" {
		o.Listen = DefaultOptions().Listen
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	ln, err := net.Listen("tcp", o.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", o.Listen, err)
	}

	v := &Viewer{
		page:    InjectBeacon(page),
		opts:    o,
		ln:      ln,
		changed: make(chan struct{}, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", v.handlePage)
	mux.HandleFunc("/closed", v.handleClosed)
	v.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return v, nil
}

// Serve is Listen followed by Run.
func Serve(ctx context.Context, page []byte, o Options) error {
	v, err := Listen(page, o)
	if err != nil {
		return err
	}
	return v.Run(ctx)
}

// URL is the address the chart is served at.
func (v *Viewer) URL() string {
	return "http://" + v.ln.Addr().String() + "/"
}

// Run serves until the page has been closed for the grace period or ctx is
// done, then shuts the server down. Cancellation is not an error.
func (v *Viewer) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := v.server.Serve(v.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	fmt.Fprintf(v.opts.Out, "Serving chart at %s (close the page or press Ctrl+C to exit)\n", v.URL())
	if v.opts.OpenBrowser {
		if err := OpenBrowser(v.URL()); err != nil {
			monitoring.Logf("%v", err)
		}
	}

	var runErr error
wait:
	for {
		select {
		case <-ctx.Done():
			monitoring.Debugf("viewer: context done: %v", ctx.Err())
			break wait
		case err, ok := <-serveErr:
			if ok {
				runErr = fmt.Errorf("chart server failed: %w", err)
			}
			break wait
		case <-v.timerC():
			monitoring.Debugf("viewer: page closed")
			break wait
		case <-v.changed:
		}
	}

	v.disarm()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := v.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("chart server shutdown error: %v", err)
	}
	return runErr
}

func (v *Viewer) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// A reload sends the close beacon before fetching the page again.
	v.disarm()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(v.page); err != nil {
		monitoring.Debugf("viewer: write page: %v", err)
	}
}

func (v *Viewer) handleClosed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v.arm()
	w.WriteHeader(http.StatusNoContent)
}

// arm starts, or restarts, the grace timer.
func (v *Viewer) arm() {
	v.mu.Lock()
	if v.timer == nil {
		v.timer = v.opts.Clock.NewTimer(v.opts.GracePeriod)
	} else {
		v.drain()
		v.timer.Reset(v.opts.GracePeriod)
	}
	v.armed = true
	v.mu.Unlock()
	v.notify()
}

func (v *Viewer) disarm() {
	v.mu.Lock()
	if v.armed {
		v.drain()
		v.armed = false
	}
	v.mu.Unlock()
	v.notify()
}

// drain stops the timer and discards a pending tick. Callers hold mu.
func (v *Viewer) drain() {
	if !v.timer.Stop() {
		select {
		case <-v.timer.C():
		default:
		}
	}
}

func (v *Viewer) notify() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

// timerC returns the grace timer channel, or nil while disarmed.
func (v *Viewer) timerC() <-chan time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.armed {
		return nil
	}
	return v.timer.C()
}

// InjectBeacon inserts the close beacon before </body>, or appends it.
func InjectBeacon(page []byte) []byte {
	i := bytes.LastIndex(page, []byte("</body>"))
	if i < 0 {
		return append(append([]byte(nil), page...), closeBeacon...)
	}
	out := make([]byte, 0, len(page)+len(closeBeacon))
	out = append(out, page[:i]...)
	out = append(out, closeBeacon...)
	return append(out, page[i:]...)
}
