package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"transmute/internal/config"
	"transmute/internal/logging"
)

func TestLogOptions(t *testing.T) {
	cfg := config.Daemon{Log: config.LogCfg{Level: "debug", JSON: true}}
	opts := logOptions(cfg)
	assert.Equal(t, logging.Options{Level: "debug", JSON: true}, opts)

	var buf bytes.Buffer
	opts.Output = &buf
	logging.Configure(opts)
	t.Cleanup(func() { logging.Configure(logging.Options{}) })
	logging.L().Debug("daemon configured", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"daemon configured"`)
}
