package connectivity

import (
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const dialTimeout = 3 * time.Second

// Watcher feeds a Monitor by periodically dialing the remote backend
// host. It is the platform connectivity signal for environments without
// a native one.
type Watcher struct {
	monitor  *Monitor
	addr     string
	logger   *zap.Logger
	ticker   *time.Ticker
	stopChan chan struct{}
	dial     func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// NewWatcher creates a watcher that checks reachability of the remote
// base URL at the given interval
func NewWatcher(monitor *Monitor, remoteBaseURL string, interval time.Duration, logger *zap.Logger) (*Watcher, error) {
	parsed, err := url.Parse(remoteBaseURL)
	if err != nil {
		return nil, err
	}

	host := parsed.Host
	if parsed.Port() == "" {
		if parsed.Scheme == "http" {
			host = net.JoinHostPort(parsed.Hostname(), "80")
		} else {
			host = net.JoinHostPort(parsed.Hostname(), "443")
		}
	}

	return &Watcher{
		monitor:  monitor,
		addr:     host,
		logger:   logger,
		ticker:   time.NewTicker(interval),
		stopChan: make(chan struct{}),
		dial:     net.DialTimeout,
	}, nil
}

// Start begins the reachability checks
func (w *Watcher) Start() {
	w.logger.Info("connectivity watcher started", zap.String("addr", w.addr))
	go w.run()
}

// Stop stops the reachability checks
func (w *Watcher) Stop() {
	w.ticker.Stop()
	close(w.stopChan)
	w.logger.Info("connectivity watcher stopped")
}

// run executes the watch loop
func (w *Watcher) run() {
	w.check()

	for {
		select {
		case <-w.ticker.C:
			w.check()
		case <-w.stopChan:
			return
		}
	}
}

// check dials the remote host once and reports the outcome
func (w *Watcher) check() {
	conn, err := w.dial("tcp", w.addr, dialTimeout)
	if err != nil {
		w.monitor.SetOnline(false)
		return
	}
	conn.Close()
	w.monitor.SetOnline(true)
}
