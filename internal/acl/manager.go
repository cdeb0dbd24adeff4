package acl

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KilimcininKorOglu/oba-aci/internal/config"
	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
)

// Manager wires a RuleCache, a Handler and a CacheListener from
// configuration and keeps the bootstrap ACIs current.
type Manager struct {
	mu       sync.RWMutex
	cfg      config.ACLConfig
	logger   logging.Logger
	metrics  *Metrics
	cache    *RuleCache
	handler  *Handler
	listener *CacheListener
	entries  MapEntries
	bases    []dn.DN
	watcher  *FileWatcher

	reloadCount    uint64
	lastReload     time.Time
	lastError      error
	lastErrorTime  time.Time
	decodeFailures int
}

// ManagerConfig holds configuration for NewManager.
type ManagerConfig struct {
	// Config is the engine configuration. Nil means config.DefaultConfig().
	Config *config.Config

	Logger logging.Logger

	// Registerer receives the metrics when they are enabled. Nil means
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// Handler supplies the directory collaborators. Its Cache, Logger,
	// Metrics and ModifyDNLockRetries are set by the manager. When Entries
	// is nil the bootstrap entries are used.
	Handler HandlerConfig
}

// ManagerStats holds rule cache and reload statistics.
type ManagerStats struct {
	BootstrapFile string
	ACICount      int
	GlobalACIs    int
	ReloadCount   uint64
	LastReload    time.Time
	LastError     error
	LastErrorTime time.Time

	// DecodeFailures counts the ACIs of the last bootstrap load that did
	// not decode. Lockdown is set while it is non-zero.
	DecodeFailures int
	Lockdown       bool
}

// NewManager builds the engine from cfg. Global ACIs that fail to decode and
// bootstrap files that cannot be read are returned as a *ConfigurationError.
// Bootstrap ACIs that fail to decode are skipped and counted in Stats.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg == nil {
		cfg = &ManagerConfig{}
	}
	conf := cfg.Config
	if conf == nil {
		conf = config.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	m := &Manager{
		cfg:        conf.ACL,
		logger:     logger,
		entries:    MapEntries{},
		lastReload: time.Now(),
	}

	if conf.Metrics.Enabled {
		reg := cfg.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m.metrics = NewMetrics(reg, conf.Metrics.Namespace)
	}

	decodeOpts := []DecodeOption{WithDecodeLogger(logger)}
	if conf.ACL.DNSCanonicalCheck && cfg.Handler.Resolver != nil {
		decodeOpts = append(decodeOpts, WithResolver(cfg.Handler.Resolver))
		if cfg.Handler.ResolveTimeout > 0 {
			decodeOpts = append(decodeOpts, WithResolveTimeout(cfg.Handler.ResolveTimeout))
		}
	}
	m.cache = NewRuleCache(
		WithCacheLogger(logger),
		WithCacheMetrics(m.metrics),
		WithDecodeOptions(decodeOpts...),
	)

	if _, errs := m.cache.SetGlobal(conf.ACL.GlobalACIs); len(errs) > 0 {
		return nil, &ConfigurationError{Source: "global ACIs", Failures: errs}
	}

	hc := cfg.Handler
	hc.Cache = m.cache
	hc.Logger = logger
	hc.Metrics = m.metrics
	hc.ModifyDNLockRetries = conf.ACL.ModifyDNLockRetries
	if hc.Entries == nil {
		hc.Entries = m
	}
	m.handler = NewHandler(hc)
	m.listener = NewCacheListener(m.cache, logger)

	if conf.ACL.BootstrapFile != "" {
		if err := m.loadBootstrap(logger); err != nil {
			return nil, &ConfigurationError{Source: conf.ACL.BootstrapFile, Failures: []error{err}}
		}
		if conf.ACL.WatchBootstrap {
			w, err := NewFileWatcher(&WatcherConfig{
				FilePath: conf.ACL.BootstrapFile,
				Target:   m,
				Logger:   logger,
				Debounce: conf.ACL.WatchDebounce,
			})
			if err != nil {
				return nil, err
			}
			m.watcher = w
			w.Start()
		}
	}

	logger.Info("access control initialized",
		"acis", m.cache.Len(),
		"global_acis", len(m.cache.Global()),
		"bootstrap_file", conf.ACL.BootstrapFile,
	)
	return m, nil
}

// loadBootstrap replaces the bootstrap ACIs with the current file content.
// The old ACIs stay in place when the file cannot be parsed.
func (m *Manager) loadBootstrap(logger logging.Logger) error {
	backends, err := LoadBootstrapFile(m.cfg.BootstrapFile)
	if err != nil {
		return err
	}

	var bases []dn.DN
	entries := MapEntries{}
	var all []*filter.Entry
	for _, b := range backends {
		bases = append(bases, b.BaseDN)
		entries.Put(b.Entries...)
		all = append(all, b.Entries...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stale := make([]dn.DN, 0, len(m.bases)+len(bases))
	stale = append(append(stale, m.bases...), bases...)
	n, errs := m.cache.ReplaceSubtrees(stale, all)
	m.bases = bases
	m.entries = entries
	m.decodeFailures = len(errs)
	if len(errs) > 0 {
		logger.Warn("bootstrap ACIs failed to decode; affected entries are locked down",
			"file", m.cfg.BootstrapFile, "failures", len(errs))
	}
	logger.Info("bootstrap ACIs loaded", "file", m.cfg.BootstrapFile, "backends", len(backends), "acis", n)
	return nil
}

// Reload reloads the bootstrap file. On failure the previous ACIs are kept.
func (m *Manager) Reload() error {
	if m.cfg.BootstrapFile == "" {
		return fmt.Errorf("acl: no bootstrap file configured; reload not supported")
	}

	// Tag the lines of one reload.
	logger, _ := logging.ForRequest(m.logger)
	err := m.loadBootstrap(logger)
	m.metrics.RecordReload(err)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastError = err
		m.lastErrorTime = time.Now()
		logger.Error("ACI reload failed", "file", m.cfg.BootstrapFile, "error", err)
		return fmt.Errorf("acl: reload failed: %w", err)
	}
	m.lastReload = time.Now()
	m.lastError = nil
	atomic.AddUint64(&m.reloadCount, 1)
	return nil
}

// GetEntry returns a bootstrap entry. It implements EntryProvider for
// handlers built without a directory of their own.
func (m *Manager) GetEntry(d dn.DN) (*filter.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.GetEntry(d)
}

// Handler returns the access control handler.
func (m *Manager) Handler() *Handler {
	return m.handler
}

// Cache returns the rule cache.
func (m *Manager) Cache() *RuleCache {
	return m.cache
}

// Listener returns the listener to register for directory changes.
func (m *Manager) Listener() ChangeListener {
	return m.listener
}

// Stats returns cache and reload statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ManagerStats{
		BootstrapFile:  m.cfg.BootstrapFile,
		ACICount:       m.cache.Len(),
		GlobalACIs:     len(m.cache.Global()),
		ReloadCount:    atomic.LoadUint64(&m.reloadCount),
		LastReload:     m.lastReload,
		LastError:      m.lastError,
		LastErrorTime:  m.lastErrorTime,
		DecodeFailures: m.decodeFailures,
		Lockdown:       m.decodeFailures > 0,
	}
}

// Close stops the bootstrap file watcher, if any.
func (m *Manager) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
}
