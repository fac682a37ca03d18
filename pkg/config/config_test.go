package config

import (
	"os"
	"testing"
)

type testConfig struct {
	Addr    string `mapstructure:"http_addr"`
	Workers int    `mapstructure:"workers"`
	Nested  struct {
		Status string `mapstructure:"status"`
	} `mapstructure:"permission"`
}

func TestManagerDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TESTAPP_HTTP_ADDR", "127.0.0.1:9999")

	m, err := New("testapp", dir, "", "TESTAPP", false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	SetDefaults(m.Viper, map[string]any{
		"http_addr":         "127.0.0.1:5040",
		"workers":           4,
		"permission.status": "notDetermined",
	})

	conf := &testConfig{}
	if err := m.Load(conf); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if conf.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %q, want env override", conf.Addr)
	}
	if conf.Workers != 4 {
		t.Errorf("Workers = %d, want 4", conf.Workers)
	}
	if conf.Nested.Status != "notDetermined" {
		t.Errorf("Status = %q, want default", conf.Nested.Status)
	}
	if _, err := os.Stat(m.File()); !os.IsNotExist(err) {
		t.Errorf("config file should not be written when writeConfig is false")
	}
}

func TestManagerPersist(t *testing.T) {
	dir := t.TempDir()

	m, err := New("testapp", dir, "server", "", false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := m.Persist("permission.status", "authorized"); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	reloaded, err := New("testapp", dir, "server", "", false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	conf := &testConfig{}
	if err := reloaded.Load(conf); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if conf.Nested.Status != "authorized" {
		t.Errorf("Status = %q, want persisted value", conf.Nested.Status)
	}
}

func TestPrepareDir(t *testing.T) {
	dir := t.TempDir()
	file := dir + string(os.PathSeparator) + "file"
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := PrepareDir(file); err != ErrInvalidDirectory {
		t.Errorf("PrepareDir(file) = %v, want ErrInvalidDirectory", err)
	}
	if err := PrepareDir(dir + string(os.PathSeparator) + "a" + string(os.PathSeparator) + "b"); err != nil {
		t.Errorf("PrepareDir(nested) = %v", err)
	}
}
