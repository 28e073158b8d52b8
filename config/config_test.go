package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeConfig 在临时目录写入配置文件（测试辅助）
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

// TestLoadYAML 测试基础 YAML 加载
func TestLoadYAML(t *testing.T) {
	dir := writeConfig(t, "server:\n  addr: \":8080\"\nlog:\n  level: debug\n")

	loader, err := New(WithConfigPaths(dir))
	if err != nil {
		t.Fatalf("New should not return error, got: %v", err)
	}
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load should not return error, got: %v", err)
	}

	if got := loader.Get("server.addr"); got != ":8080" {
		t.Errorf("expected server.addr :8080, got: %v", got)
	}
}

// TestUnmarshal 测试结构体反序列化
func TestUnmarshal(t *testing.T) {
	dir := writeConfig(t, "server:\n  addr: \":9000\"\n")

	loader, _ := New(WithConfigPaths(dir))
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load should not return error, got: %v", err)
	}

	var cfg struct {
		Server struct {
			Addr string `mapstructure:"addr"`
		} `mapstructure:"server"`
	}
	if err := loader.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal should not return error, got: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected :9000, got: %s", cfg.Server.Addr)
	}
}

// TestUnmarshalKey 测试单 key 反序列化
func TestUnmarshalKey(t *testing.T) {
	dir := writeConfig(t, "breaker:\n  max_failures: 5\n")

	loader, _ := New(WithConfigPaths(dir))
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load should not return error, got: %v", err)
	}

	var brk struct {
		MaxFailures int `mapstructure:"max_failures"`
	}
	if err := loader.UnmarshalKey("breaker", &brk); err != nil {
		t.Fatalf("UnmarshalKey should not return error, got: %v", err)
	}
	if brk.MaxFailures != 5 {
		t.Errorf("expected 5, got: %d", brk.MaxFailures)
	}
}

// TestUnmarshalBeforeLoad 测试 Load 之前的读取
func TestUnmarshalBeforeLoad(t *testing.T) {
	loader, _ := New()
	var v map[string]any
	if err := loader.Unmarshal(&v); err != ErrNotLoaded {
		t.Errorf("expected ErrNotLoaded, got: %v", err)
	}
}

// TestEnvOverride 测试环境变量覆盖
func TestEnvOverride(t *testing.T) {
	dir := writeConfig(t, "server:\n  addr: \":8080\"\n")
	t.Setenv("RENU_SERVER_ADDR", ":7070")

	loader, _ := New(WithConfigPaths(dir), WithEnvPrefix("RENU"))
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load should not return error, got: %v", err)
	}

	if got := loader.Get("server.addr"); got != ":7070" {
		t.Errorf("env should override file, got: %v", got)
	}
}

// TestMissingFileIsOK 测试缺失配置文件
func TestMissingFileIsOK(t *testing.T) {
	loader, _ := New(WithConfigPaths(t.TempDir()))
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("missing config file should not be an error, got: %v", err)
	}
}
