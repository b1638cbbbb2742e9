package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address())
	}
	if cfg.Upload.MaxDirectUploadBytes != 100*1024*1024 {
		t.Fatalf("unexpected direct upload ceiling: %d", cfg.Upload.MaxDirectUploadBytes)
	}
	if cfg.Upload.PresignTTL != 15*time.Minute {
		t.Fatalf("unexpected presign ttl: %s", cfg.Upload.PresignTTL)
	}
	if cfg.Metrics.PrometheusPath != "/metrics" {
		t.Fatalf("unexpected metrics path: %s", cfg.Metrics.PrometheusPath)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("FILEVAULT_API_PORT", "9090")
	t.Setenv("FILEVAULT_MAX_DIRECT_UPLOAD_BYTES", "1048576")
	t.Setenv("FILEVAULT_PRESIGN_TTL", "5m")
	t.Setenv("POSTGRES_SSL_MODE", "Require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxDirectUploadBytes != 1048576 {
		t.Fatalf("unexpected ceiling: %d", cfg.Upload.MaxDirectUploadBytes)
	}
	if cfg.Upload.PresignTTL != 5*time.Minute {
		t.Fatalf("unexpected ttl: %s", cfg.Upload.PresignTTL)
	}
	if cfg.Postgres.SSLMode != "require" {
		t.Fatalf("expected lowercased ssl mode, got %q", cfg.Postgres.SSLMode)
	}
}

func TestLoadClampsBcryptCost(t *testing.T) {
	t.Setenv("FILEVAULT_AUTH_BCRYPT_COST", "99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Fatalf("expected out-of-range cost replaced by default, got %d", cfg.Auth.BcryptCost)
	}
}

func TestDSNShape(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "filevault", SSLMode: "disable"}
	want := "postgres://u:p@db:5432/filevault?sslmode=disable"
	if got := p.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}
