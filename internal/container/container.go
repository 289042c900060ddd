// Package container wires together the process-wide singletons every
// match and the router depend on: the match registry, the results store,
// structured logging, and Prometheus metrics.
package container

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"boardkeeper/internal/config"
	"boardkeeper/internal/match"
	"boardkeeper/internal/registry"
	"boardkeeper/internal/store"
)

// Metrics holds the Prometheus instruments the engine updates as matches
// run, grounded on the gauge/counter shape luxfi-consensus exposes for its
// own long-running engine.
type Metrics struct {
	MatchesInFlight prometheus.Gauge
	CommandsTotal   prometheus.Counter
	TimerAlertsTotal prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MatchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "boardkeeper",
			Name:      "matches_in_flight",
			Help:      "Number of matches currently registered.",
		}),
		CommandsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boardkeeper",
			Name:      "commands_total",
			Help:      "Number of player requests dispatched to a match.",
		}),
		TimerAlertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boardkeeper",
			Name:      "timer_alerts_total",
			Help:      "Number of graduated timer alerts fired.",
		}),
	}
	reg.MustRegister(m.MatchesInFlight, m.CommandsTotal, m.TimerAlertsTotal)
	return m
}

// Container is the engine's process-wide dependency set, matching what the
// teacher's Nakama InitModule wired into its RPCs and match handler, minus
// the Nakama-specific runtime pieces.
type Container struct {
	Log     *zap.Logger
	Config  *config.Config
	Store   store.ResultsStore
	Metrics *Metrics
	Matches *registry.Registry[*match.Match]
}

// Option configures a Container at construction time.
type Option func(*options)

type options struct {
	log      *zap.Logger
	cfg      *config.Config
	resStore store.ResultsStore
	promReg  prometheus.Registerer
}

// WithLogger overrides the default production zap logger.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithConfig supplies an already-loaded configuration.
func WithConfig(cfg *config.Config) Option { return func(o *options) { o.cfg = cfg } }

// WithStore supplies a results store (e.g. an in-memory fake for tests).
func WithStore(s store.ResultsStore) Option { return func(o *options) { o.resStore = s } }

// WithRegisterer overrides the Prometheus registerer metrics attach to.
func WithRegisterer(r prometheus.Registerer) Option { return func(o *options) { o.promReg = r } }

// Init builds a Container, applying opts over sensible defaults: a
// production zap logger, an empty Config, and the global Prometheus
// registry. Callers that already loaded config.Config and opened a store
// should pass WithConfig/WithStore explicitly.
func Init(opts ...Option) (*Container, error) {
	o := &options{}
	for _, apply := range opts {
		apply(o)
	}
	if o.log == nil {
		log, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		o.log = log
	}
	if o.cfg == nil {
		o.cfg = &config.Config{}
	}
	if o.promReg == nil {
		o.promReg = prometheus.DefaultRegisterer
	}

	return &Container{
		Log:     o.log,
		Config:  o.cfg,
		Store:   o.resStore,
		Metrics: newMetrics(o.promReg),
		Matches: registry.New[*match.Match](o.log),
	}, nil
}

// Release flushes the logger and closes the results store.
func (c *Container) Release() error {
	_ = c.Log.Sync()
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
