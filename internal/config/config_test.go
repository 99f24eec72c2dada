package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTransforms_ResolvesWorkspaceAndDefaults(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`schema_version: v1
workspace: out
transforms:
  - name: shout
    action: uppercase
    from: { artifactType: txt }
    to: { artifactType: txt, shouted: true }
  - name: sandboxed
    action: copy
    isolation: { mode: isolated, actions: [copy] }
    internal_services: true
`)
	path := filepath.Join(dir, "transforms.yml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg, err := LoadTransforms(path)
	require.NoError(t, err)
	assert.Equal(t, SupportedSchema, cfg.SchemaVersion)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Workspace)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "localhost:7070", cfg.Worker.Address)
	require.Len(t, cfg.Transforms, 2)
	assert.Equal(t, "flat", cfg.Transforms[0].Isolation.Mode)
	assert.Equal(t, true, cfg.Transforms[0].To["shouted"])
	assert.Equal(t, []string{"copy"}, cfg.Transforms[1].Isolation.Actions)
	assert.True(t, cfg.Transforms[1].InternalServices)
}

func TestLoadTransforms_Invalid(t *testing.T) {
	cases := map[string]string{
		"schema":    "schema_version: v999\n",
		"duplicate": "transforms:\n  - {name: a, action: copy}\n  - {name: a, action: copy}\n",
		"no action": "transforms:\n  - {name: a}\n",
		"mode":      "transforms:\n  - {name: a, action: copy, isolation: {mode: vm}}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "transforms.yml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := LoadTransforms(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadDaemon_FileEnvAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workerd.yml")
	require.NoError(t, os.WriteFile(path, []byte(`schema_version: v1
grpc_port: 7171
sink:
  kind: kafka
  kafka:
    brokers: [broker-1:9092]
`), 0o644))
	t.Setenv("TRANSMUTE__LOG__LEVEL", "debug")
	t.Setenv("TRANSMUTE__METRICS_PORT", "9200")

	cfg, err := LoadDaemon(path)
	require.NoError(t, err)
	assert.Equal(t, 7171, cfg.GRPCPort)
	assert.Equal(t, 9200, cfg.MetricsPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "kafka", cfg.Sink.Kind)
	assert.Equal(t, []string{"broker-1:9092"}, cfg.Sink.Kafka.Brokers)
	assert.Equal(t, "transmute.work-results", cfg.Sink.Kafka.Topic)
	assert.Equal(t, ".transmute", cfg.Workspace)
}

func TestLoadDaemon_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadDaemon(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.GRPCPort)
	assert.Equal(t, "stdout", cfg.Sink.Kind)
}

func TestLoadDaemon_InvalidSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workerd.yml")
	require.NoError(t, os.WriteFile(path, []byte("schema_version: v2\n"), 0o644))
	_, err := LoadDaemon(path)
	assert.Error(t, err)
}
