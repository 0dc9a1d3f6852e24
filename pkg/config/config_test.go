package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("PDFMCR_TEST_NAME", "scans")
	p := writeConfig(t, "name: ${PDFMCR_TEST_NAME}\nport: 9000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "scans" || s.Port != 9000 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadValidates(t *testing.T) {
	p := writeConfig(t, "port: 0\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Errorf("Load = %v, want validation error", err)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	s := sample{Port: 8080}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	if err != nil || loaded {
		t.Errorf("LoadOptional = %v, %v; want defaults", loaded, err)
	}

	bad := sample{}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &bad); err == nil {
		t.Error("invalid defaults accepted")
	}
}

func TestLoadOptionalOverrides(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	loaded, err := LoadOptional(writeConfig(t, "port: 9090\n"), &s)
	if err != nil || !loaded {
		t.Fatalf("LoadOptional = %v, %v", loaded, err)
	}
	if s.Name != "default" || s.Port != 9090 {
		t.Errorf("got %+v", s)
	}
}
