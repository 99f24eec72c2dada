package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TRANSMUTE__"

type LogCfg struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type KafkaSinkCfg struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	Acks    int16    `koanf:"required_acks"` // 0,1,-1
	Version string   `koanf:"version"`
}

type SinkCfg struct {
	Kind  string       `koanf:"kind"` // stdout|kafka|none
	Kafka KafkaSinkCfg `koanf:"kafka"`
}

// Daemon configures the worker daemon process.
type Daemon struct {
	GRPCPort    int     `koanf:"grpc_port"`
	MetricsPort int     `koanf:"metrics_port"`
	Workspace   string  `koanf:"workspace"`
	Log         LogCfg  `koanf:"log"`
	Sink        SinkCfg `koanf:"sink"`
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// LoadDaemon merges YAML (if present) with env-vars
// (prefix `TRANSMUTE__`, nesting delimiter `__`, e.g. TRANSMUTE__SINK__KIND).
func LoadDaemon(path string) (Daemon, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Daemon{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return Daemon{}, fmt.Errorf("daemon schema_version %q not supported (want %s)", sv, SupportedSchema)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Daemon{}, err
	}

	var cfg Daemon
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

func applyDefaults(c *Daemon) {
	if c.GRPCPort == 0 {
		c.GRPCPort = 7070
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 9100
	}
	if c.Workspace == "" {
		c.Workspace = ".transmute"
	}
	if c.Sink.Kind == "" {
		c.Sink.Kind = "stdout"
	}
	if c.Sink.Kafka.Topic == "" {
		c.Sink.Kafka.Topic = "transmute.work-results"
	}
	if c.Sink.Kafka.Version == "" {
		c.Sink.Kafka.Version = "2.8.0"
	}
}
