package connector

import (
	"testing"
)

// TestRedisConfigValidate 测试 Redis 配置验证
func TestRedisConfigValidate(t *testing.T) {
	cfg := &RedisConfig{}
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty addr")
	}

	cfg = &RedisConfig{Addr: "127.0.0.1:6379"}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate should not return error, got: %v", err)
	}
	if cfg.Name != "default" {
		t.Errorf("expected default name, got: %s", cfg.Name)
	}
	if cfg.PoolSize != 10 {
		t.Errorf("expected default pool size 10, got: %d", cfg.PoolSize)
	}
}

// TestMySQLConfigValidate 测试 MySQL 配置验证
func TestMySQLConfigValidate(t *testing.T) {
	cfg := &MySQLConfig{}
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty host")
	}

	// DSN 优先，提供时跳过字段校验
	cfg = &MySQLConfig{DSN: "user:pass@tcp(127.0.0.1:3306)/renu?charset=utf8mb4"}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate should not return error with DSN, got: %v", err)
	}

	cfg = &MySQLConfig{Host: "127.0.0.1", Username: "root", Database: "renu"}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate should not return error, got: %v", err)
	}
	if cfg.Port != 3306 {
		t.Errorf("expected default port 3306, got: %d", cfg.Port)
	}
}

// TestSQLiteConfigValidate 测试 SQLite 配置验证
func TestSQLiteConfigValidate(t *testing.T) {
	cfg := &SQLiteConfig{}
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty path")
	}

	cfg = &SQLiteConfig{Path: ":memory:"}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate should not return error, got: %v", err)
	}
}

// TestNATSConfigValidate 测试 NATS 配置验证
func TestNATSConfigValidate(t *testing.T) {
	cfg := &NATSConfig{}
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty url")
	}

	cfg = &NATSConfig{URL: "nats://127.0.0.1:4222"}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate should not return error, got: %v", err)
	}
	if cfg.MaxReconnects != 60 {
		t.Errorf("expected default max reconnects 60, got: %d", cfg.MaxReconnects)
	}
}

// TestNewSQLiteLazyConnect 测试 SQLite 延迟连接
func TestNewSQLiteLazyConnect(t *testing.T) {
	conn, err := NewSQLite(&SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("NewSQLite should not return error, got: %v", err)
	}
	// Connect 之前客户端应为 nil
	if conn.GetClient() != nil {
		t.Error("expected nil client before Connect")
	}
	if conn.IsHealthy() {
		t.Error("expected unhealthy before Connect")
	}
}
