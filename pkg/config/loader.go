package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	poolerrors "github.com/ajitpratap0/objpool/pkg/errors"
)

// EnvPrefix prefixes environment variables overriding manager settings,
// e.g. OBJPOOL_INIT_MODE or OBJPOOL_OBSERVABILITY_LOG_LEVEL.
const EnvPrefix = "OBJPOOL"

// Load reads a ManagerConfig from a YAML file. ${VAR} references are
// substituted from the environment, manager-level keys can be overridden with
// OBJPOOL_* variables, and omitted pool fields take the engine defaults.
func Load(filePath string) (*ManagerConfig, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeFile, "failed to read config file").
			WithDetail("path", filePath)
	}
	return Parse(data)
}

// Parse decodes a ManagerConfig from YAML bytes, see Load.
func Parse(data []byte) (*ManagerConfig, error) {
	content := substituteEnvVars(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(content)); err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeFile, "failed to parse YAML")
	}

	mode, err := ParseInitMode(v.GetString("init_mode"))
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, "invalid init_mode")
	}

	cfg := NewManagerConfig()
	cfg.InitMode = mode
	cfg.AllowLogs = v.GetBool("allow_logs")
	cfg.WatchInterval = v.GetDuration("watch_interval")
	cfg.Observability = ObservabilityConfig{
		LogLevel:          v.GetString("observability.log_level"),
		MetricsAddress:    v.GetString("observability.metrics_address"),
		EnableTracing:     v.GetBool("observability.enable_tracing"),
		TracingSampleRate: v.GetFloat64("observability.tracing_sample_rate"),
	}

	pools, err := decodePools(v.Get("pools"))
	if err != nil {
		return nil, err
	}
	cfg.Pools = pools

	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, cfg *ManagerConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return poolerrors.Wrap(err, poolerrors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", filePath)
	}

	return nil
}

func newViper() *viper.Viper {
	defaults := NewManagerConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("init_mode", string(defaults.InitMode))
	v.SetDefault("allow_logs", defaults.AllowLogs)
	v.SetDefault("watch_interval", defaults.WatchInterval)
	v.SetDefault("observability.log_level", defaults.Observability.LogLevel)
	v.SetDefault("observability.metrics_address", defaults.Observability.MetricsAddress)
	v.SetDefault("observability.enable_tracing", defaults.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", defaults.Observability.TracingSampleRate)
	return v
}

// decodePools decodes each pool entry on top of DefaultPoolConfig so that
// omitted fields keep their defaults.
func decodePools(raw interface{}) ([]PoolConfig, error) {
	if raw == nil {
		return []PoolConfig{}, nil
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig, "pools must be a list")
	}

	pools := make([]PoolConfig, 0, len(entries))
	for i, entry := range entries {
		pc := DefaultPoolConfig("")
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &pc,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeInternal, "failed to build decoder")
		}
		if err := decoder.Decode(entry); err != nil {
			return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, fmt.Sprintf("invalid pool #%d", i))
		}
		pools = append(pools, pc)
	}
	return pools, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Substituted values are not scanned again, so a value containing ${...}
// is kept literally.
func substituteEnvVars(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
