package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0600); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want %o", info.Mode().Perm(), 0600)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicInvalidDir(t *testing.T) {
	t.Parallel()

	if err := WriteFileAtomic("/nonexistent/dir/out.json", []byte("data"), 0644); err == nil {
		t.Error("expected error when writing to a missing directory")
	}
}

func TestFormatFor(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"dad.json":       JSON,
		"dad.yaml":       YAML,
		"dad.YML":        YAML,
		"results":        JSON,
		"dir/strat.yaml": YAML,
	}
	for name, want := range tests {
		if got := FormatFor(name); got != want {
			t.Errorf("FormatFor(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestWriteStructured(t *testing.T) {
	t.Parallel()

	type record struct {
		Name  string `json:"name" yaml:"name"`
		Hands int    `json:"hands" yaml:"hands"`
	}
	want := record{Name: "hilo", Hands: 1000}
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "out.json")
	if err := WriteStructured(jsonPath, want); err != nil {
		t.Fatalf("WriteStructured json: %v", err)
	}
	data, _ := os.ReadFile(jsonPath)
	var gotJSON record
	if err := json.Unmarshal(data, &gotJSON); err != nil {
		t.Fatalf("invalid json written: %v", err)
	}
	if gotJSON != want {
		t.Errorf("json round trip = %+v, want %+v", gotJSON, want)
	}

	yamlPath := filepath.Join(dir, "out.yaml")
	if err := WriteStructured(yamlPath, want); err != nil {
		t.Fatalf("WriteStructured yaml: %v", err)
	}
	data, _ = os.ReadFile(yamlPath)
	var gotYAML record
	if err := yaml.Unmarshal(data, &gotYAML); err != nil {
		t.Fatalf("invalid yaml written: %v", err)
	}
	if gotYAML != want {
		t.Errorf("yaml round trip = %+v, want %+v", gotYAML, want)
	}
}
