package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads a Config from a YAML (or, as a fallback, JSON) file
// and applies defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes a Config back out, choosing JSON or YAML by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// setDefaults fills in zero-valued fields with the node's operating
// defaults, matching the quantities named throughout the spec (≈1500ms
// handshake deadline, etc).
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Identity == nil {
		cfg.Identity = &IdentityConfig{}
	}
	if cfg.Identity.IDSize == 0 {
		cfg.Identity.IDSize = 32
	}

	if cfg.Handshake == nil {
		cfg.Handshake = &HandshakeConfig{}
	}
	if cfg.Handshake.Deadline == 0 {
		cfg.Handshake.Deadline = 1500 * time.Millisecond
	}

	if cfg.Await == nil {
		cfg.Await = &AwaitConfig{}
	}
	if cfg.Await.DeferredTimeout == 0 {
		cfg.Await.DeferredTimeout = 10 * time.Second
	}
	if cfg.Await.AggregateTimeout == 0 {
		cfg.Await.AggregateTimeout = 5 * time.Second
	}

	if cfg.Scheduler == nil {
		cfg.Scheduler = &SchedulerConfig{}
	}
	if cfg.Scheduler.MaxTasksPerCycle == 0 {
		cfg.Scheduler.MaxTasksPerCycle = 1
	}

	if cfg.Bootstrap == nil {
		cfg.Bootstrap = &BootstrapConfig{}
	}
	if cfg.Bootstrap.CachePath == "" {
		cfg.Bootstrap.CachePath = ".brypt/bootstrap.json"
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Cluster == nil {
		cfg.Cluster = &ClusterConfig{}
	}
}

// ValidationIssue describes one configuration problem.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// Validate checks structural invariants the core relies on (e.g. the
// identity size bound of §3: 16-32 bytes).
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Identity != nil {
		if cfg.Identity.IDSize < 16 || cfg.Identity.IDSize > 32 {
			issues = append(issues, ValidationIssue{
				Field:   "identity.id_size",
				Message: "identity size must be between 16 and 32 bytes",
				Level:   "error",
			})
		}
	}

	if len(cfg.Endpoints) == 0 {
		issues = append(issues, ValidationIssue{
			Field:   "endpoints",
			Message: "no endpoints configured; node will be unreachable",
			Level:   "warning",
		})
	}

	for i, ep := range cfg.Endpoints {
		switch ep.Protocol {
		case "loopback", "tcp", "ws":
		default:
			issues = append(issues, ValidationIssue{
				Field:   fmt.Sprintf("endpoints[%d].protocol", i),
				Message: fmt.Sprintf("unknown protocol %q", ep.Protocol),
				Level:   "error",
			})
		}
	}

	return issues
}
