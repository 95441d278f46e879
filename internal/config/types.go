// Package config defines and loads the settings record consumed by the
// brypt node launcher. The core (C1-C8) never reads files or environment
// variables itself; cmd/bryptd loads a Config here and passes plain Go
// values into the core's constructors.
package config

import "time"

// Config is the root settings record for a brypt node process.
type Config struct {
	Environment string            `yaml:"environment" json:"environment"`
	Identity    *IdentityConfig   `yaml:"identity" json:"identity"`
	Endpoints   []EndpointConfig  `yaml:"endpoints" json:"endpoints"`
	Handshake   *HandshakeConfig  `yaml:"handshake" json:"handshake"`
	Await       *AwaitConfig      `yaml:"await" json:"await"`
	Scheduler   *SchedulerConfig  `yaml:"scheduler" json:"scheduler"`
	Bootstrap   *BootstrapConfig  `yaml:"bootstrap" json:"bootstrap"`
	Logging     *LoggingConfig    `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig    `yaml:"metrics" json:"metrics"`
	Cluster     *ClusterConfig    `yaml:"cluster" json:"cluster"`
}

// IdentityConfig controls how the node's own identifier is produced/loaded.
type IdentityConfig struct {
	// IDPath, if set, names a file holding a persisted identifier; an
	// empty path means generate a fresh random identifier on startup.
	IDPath string `yaml:"id_path" json:"id_path"`
	// IDSize is the configured identifier size in bytes, validated to
	// 16-32 (§3). Identity generation does not read it: a generated
	// identifier is always wire.MaxNodeIDSize (32) bytes.
	IDSize int `yaml:"id_size" json:"id_size"`
}

// EndpointConfig describes one endpoint driver to start.
type EndpointConfig struct {
	// Protocol names the transport: "loopback", "tcp", or "ws".
	Protocol string `yaml:"protocol" json:"protocol"`
	// BindAddress, if non-empty, requests schedule_bind on this endpoint.
	BindAddress string `yaml:"bind_address" json:"bind_address"`
	// ConnectAddresses requests schedule_connect to each peer address.
	ConnectAddresses []string `yaml:"connect_addresses" json:"connect_addresses"`
}

// HandshakeConfig tunes the exchange processor (C3).
type HandshakeConfig struct {
	// Deadline is the configured handshake deadline (default 1500ms). The
	// exchange processor does not read it; every handshake uses the fixed
	// exchange.HandshakeDeadline.
	Deadline time.Duration `yaml:"deadline" json:"deadline"`
}

// AwaitConfig tunes the tracking service (C7).
type AwaitConfig struct {
	// DeferredTimeout is the configured single-responder tracker timeout.
	// No caller reads it; each Proxy.Request caller passes its own deadline.
	DeferredTimeout time.Duration `yaml:"deferred_timeout" json:"deferred_timeout"`
	// AggregateTimeout bounds a fan-out tracker.
	AggregateTimeout time.Duration `yaml:"aggregate_timeout" json:"aggregate_timeout"`
}

// SchedulerConfig tunes the cooperative executor (C8).
type SchedulerConfig struct {
	// MaxTasksPerCycle is the configured per-delegate task bound (default
	// 1). The scheduler does not read it; RunOnce calls each ready
	// delegate's Execute once per cycle.
	MaxTasksPerCycle int `yaml:"max_tasks_per_cycle" json:"max_tasks_per_cycle"`
}

// BootstrapConfig points at the bootstrap-cache file (§6).
type BootstrapConfig struct {
	CachePath string `yaml:"cache_path" json:"cache_path"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig configures the prometheus collector endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// ClusterConfig names this node's reported position in its cluster, the
// "designation" an InformationHandler response carries: a coordinator
// (Branch) or a plain node (Leaf).
type ClusterConfig struct {
	// ID is the cluster identifier this node reports membership in.
	ID uint32 `yaml:"id" json:"id"`
	// Coordinator marks this node as its cluster's coordinator.
	Coordinator bool `yaml:"coordinator" json:"coordinator"`
}
