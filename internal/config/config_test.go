package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"socialtt/internal/model"
)

func TestLoadWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q, want default", cfg.Listen)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "listen: \":9999\"\nday_start_hour: 0\nday_end_hour: 3\ndefault_term: bogus\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q, want :9999", cfg.Listen)
	}
	if cfg.DayStartHour != 8 || cfg.DayEndHour != 20 {
		t.Errorf("day window = %d-%d, want defaults for invalid values", cfg.DayStartHour, cfg.DayEndHour)
	}
	if cfg.Term() != model.TermS1 {
		t.Errorf("Term() = %q, want fallback S1", cfg.Term())
	}
	if cfg.MinIO.Bucket != "social-timetable" {
		t.Errorf("MinIO.Bucket = %q, want default", cfg.MinIO.Bucket)
	}
}

func TestEnvOverridesFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SOCIALTT_LISTEN", ":7070")
	t.Setenv("MINIO_ENDPOINT", "minio.internal:9000")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("Listen = %q, want env override", cfg.Listen)
	}
	if cfg.MinIO.Endpoint != "minio.internal:9000" || !cfg.MinIO.UseSSL {
		t.Errorf("MinIO = %+v, want env overrides applied", cfg.MinIO)
	}
}

func TestLocationDefaultsToReferenceZone(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	ref := time.Date(2023, time.March, 6, 10, 0, 0, 0, model.ReferenceZone)
	if !ref.In(loc).Equal(ref) || ref.In(loc).Hour() != 10 {
		t.Errorf("default location is not the fixed reference zone")
	}
}

func TestLocationResolvesConfiguredZone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Australia/Brisbane"
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "Australia/Brisbane" {
		t.Errorf("Location = %v, want Australia/Brisbane", loc)
	}

	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Error("Location accepted an unknown zone")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = ":8181"
	cfg.RefreshCron = "0 */6 * * *"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Listen != ":8181" || got.RefreshCron != "0 */6 * * *" {
		t.Errorf("round trip lost fields: %+v", got)
	}
}
