package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grand-thief-cash/ignite/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

const sampleYAML = `
app_info:
  app_name: demo
  env: development
logging:
  enabled: true
  level: debug
start:
  - component: http_server
    mode: permanent
  - component: redis
coordinator:
  max_depth: 64
biz_config:
  greeting: hello
  workers: 4
`

func TestLoadYAMLConfig(t *testing.T) {
	cm := NewConfigManager("development", writeConfig(t, sampleYAML))
	if err := cm.LoadConfig(); err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	cfg := cm.GetConfig()
	if cfg.APPInfo == nil || cfg.APPInfo.APPName != "demo" {
		t.Fatalf("app_info not parsed: %+v", cfg.APPInfo)
	}
	if cfg.Logging == nil || !cfg.Logging.Enabled || cfg.Logging.Level != "debug" {
		t.Fatalf("logging section not parsed: %+v", cfg.Logging)
	}
	if cfg.Coordinator == nil || cfg.Coordinator.MaxDepth != 64 {
		t.Fatalf("coordinator section not parsed: %+v", cfg.Coordinator)
	}
}

func TestStartEntriesParsing(t *testing.T) {
	cm := NewConfigManager("development", writeConfig(t, sampleYAML))
	if err := cm.LoadConfig(); err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	entries, err := cm.GetConfig().StartEntries()
	if err != nil {
		t.Fatalf("start entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "http_server" || entries[0].Mode != core.Permanent {
		t.Fatalf("first entry wrong: %+v", entries[0])
	}
	// omitted mode defaults to temporary
	if entries[1].Name != "redis" || entries[1].Mode != core.Temporary {
		t.Fatalf("second entry wrong: %+v", entries[1])
	}
}

func TestStartEntriesRejectsUnknownMode(t *testing.T) {
	cfg := &AppConfig{Start: []*StartEntryConfig{{Component: "x", Mode: "forever"}}}
	if _, err := cfg.StartEntries(); err == nil {
		t.Fatalf("unknown mode must be rejected")
	}
}

func TestValidatorRejectsDuplicateStartEntries(t *testing.T) {
	path := writeConfig(t, `
start:
  - component: a
  - component: a
`)
	cm := NewConfigManager("development", path)
	if err := cm.LoadConfig(); err == nil {
		t.Fatalf("duplicate start entries must be rejected")
	}
}

func TestValidatorRejectsNegativeMaxDepth(t *testing.T) {
	path := writeConfig(t, `
coordinator:
  max_depth: -1
`)
	cm := NewConfigManager("development", path)
	if err := cm.LoadConfig(); err == nil {
		t.Fatalf("negative max_depth must be rejected")
	}
}

type demoBiz struct {
	Greeting string `yaml:"greeting"`
	Workers  int    `yaml:"workers"`
}

func TestBizConfigDoubleDecode(t *testing.T) {
	biz := &demoBiz{Workers: 1}
	cm := NewConfigManagerWithBiz("development", writeConfig(t, sampleYAML), biz)
	if err := cm.LoadConfig(); err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	got, ok := cm.BizConfig().(*demoBiz)
	if !ok {
		t.Fatalf("biz config type lost: %T", cm.BizConfig())
	}
	if got.Greeting != "hello" || got.Workers != 4 {
		t.Fatalf("biz config not decoded: %+v", got)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	cm := NewConfigManager("development", filepath.Join(t.TempDir(), "nope.yaml"))
	if err := cm.LoadConfig(); err == nil {
		t.Fatalf("missing file must fail")
	}
}
