package healthmonitor

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

const (
	// DefaultInterval is how often each shard is probed.
	DefaultInterval = 5 * time.Second
	// DefaultProbeTimeout bounds a single shard's /health request.
	DefaultProbeTimeout = 2 * time.Second
	// DefaultAvailabilityTTL is how long a successful probe stays valid.
	DefaultAvailabilityTTL = 30 * time.Second

	healthBody = "UP"
)

// defaultHTTPClient is shared by every probe. Per design, health checks
// reuse one pooled client rather than allocating a fresh *http.Client per
// probe, which would defeat keep-alives under a large shard count.
var defaultHTTPClient = &http.Client{Timeout: DefaultProbeTimeout}

// ShardRecord is the last observed health state of one shard.
type ShardRecord struct {
	ShardID   string
	Healthy   bool
	LastCheck time.Time
}

// ShardProvider returns the current set of shards to probe. Callers
// typically wire this to a ClusterConfigRepository's GetShards.
type ShardProvider func() ([]vectortypes.ShardInfo, error)

// ShardHealthMonitor polls every shard returned by its ShardProvider on a
// fixed interval and keeps a concurrent map of the most recent result.
type ShardHealthMonitor struct {
	provider        ShardProvider
	httpClient      *http.Client
	interval        time.Duration
	probeTimeout    time.Duration
	availabilityTTL time.Duration
	logger          *zap.SugaredLogger

	now func() time.Time

	mu      sync.RWMutex
	records map[string]ShardRecord

	checksTotal   *prometheus.CounterVec
	shardsHealthy prometheus.Gauge

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a ShardHealthMonitor at construction.
type Option func(*ShardHealthMonitor)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option { return func(m *ShardHealthMonitor) { m.interval = d } }

// WithProbeTimeout overrides DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *ShardHealthMonitor) { m.probeTimeout = d }
}

// WithAvailabilityTTL overrides DefaultAvailabilityTTL.
func WithAvailabilityTTL(d time.Duration) Option {
	return func(m *ShardHealthMonitor) { m.availabilityTTL = d }
}

// WithHTTPClient overrides the pooled client used for probes, primarily for
// tests that need to point at an httptest.Server transport.
func WithHTTPClient(c *http.Client) Option { return func(m *ShardHealthMonitor) { m.httpClient = c } }

// withClock overrides the monitor's notion of "now", used only by tests
// exercising the availability TTL without sleeping in real time.
func withClock(now func() time.Time) Option { return func(m *ShardHealthMonitor) { m.now = now } }

// NewShardHealthMonitor builds a monitor over the shards returned by
// provider. Call Start to begin polling.
func NewShardHealthMonitor(provider ShardProvider, logger *zap.SugaredLogger, opts ...Option) *ShardHealthMonitor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &ShardHealthMonitor{
		provider:        provider,
		httpClient:      defaultHTTPClient,
		interval:        DefaultInterval,
		probeTimeout:    DefaultProbeTimeout,
		availabilityTTL: DefaultAvailabilityTTL,
		logger:          logger,
		now:             time.Now,
		records:         make(map[string]ShardRecord),
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_shard_health_checks_total",
			Help: "Count of shard health probes by shard and outcome.",
		}, []string{"shard_id", "outcome"}),
		shardsHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vecdb_shards_healthy",
			Help: "Number of shards whose most recent probe succeeded.",
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Collectors returns the monitor's Prometheus collectors for registration.
func (m *ShardHealthMonitor) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.checksTotal, m.shardsHealthy}
}

// Start begins the polling loop in a background goroutine. It probes once
// immediately, then every m.interval, until ctx is canceled or Stop is
// called. Each cycle runs to completion before the next begins.
func (m *ShardHealthMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.checkAll(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.checkAll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the polling loop and waits for the in-flight cycle to exit.
func (m *ShardHealthMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// checkAll probes every shard concurrently and waits for all probes to
// finish before returning, so two poll cycles never overlap.
func (m *ShardHealthMonitor) checkAll(ctx context.Context) {
	shards, err := m.provider()
	if err != nil {
		m.logger.Warnw("health monitor could not list shards", "error", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range shards {
		s := s
		g.Go(func() error {
			m.probeOne(gctx, s)
			return nil
		})
	}
	_ = g.Wait()

	m.mu.RLock()
	healthy := 0
	for _, r := range m.records {
		if r.Healthy {
			healthy++
		}
	}
	m.mu.RUnlock()
	m.shardsHealthy.Set(float64(healthy))
}

func (m *ShardHealthMonitor) probeOne(ctx context.Context, shard vectortypes.ShardInfo) {
	healthy := m.probe(ctx, shard.BaseURL)

	m.mu.Lock()
	m.records[shard.ShardID] = ShardRecord{ShardID: shard.ShardID, Healthy: healthy, LastCheck: m.now()}
	m.mu.Unlock()

	outcome := "healthy"
	if !healthy {
		outcome = "unhealthy"
	}
	m.checksTotal.WithLabelValues(shard.ShardID, outcome).Inc()
	m.logger.Debugw("shard health probe", "shard_id", shard.ShardID, "healthy", healthy)
}

func (m *ShardHealthMonitor) probe(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	url := strings.TrimRight(baseURL, "/") + "/api/v1/storage/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(body)) == healthBody
}

// IsShardAvailable reports whether shardID's most recent probe succeeded
// and happened within the availability TTL.
func (m *ShardHealthMonitor) IsShardAvailable(shardID string) bool {
	m.mu.RLock()
	r, ok := m.records[shardID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return r.Healthy && m.now().Sub(r.LastCheck) <= m.availabilityTTL
}

// Snapshot returns every probed shard id mapped to whether that shard is
// currently available.
func (m *ShardHealthMonitor) Snapshot() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.records))
	for id, r := range m.records {
		out[id] = r.Healthy && m.now().Sub(r.LastCheck) <= m.availabilityTTL
	}
	return out
}
