package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
scan:
  collection: my.collection
  pre_pass: true
rules:
  disabled:
    - external_dependency
annotators:
  disabled:
    - inbound-transfer
`

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.Collection != "my.collection" {
		t.Errorf("collection = %q", cfg.Scan.Collection)
	}
	if !cfg.Scan.PrePass {
		t.Error("pre_pass not parsed")
	}
	if !cfg.DisabledRules()["external_dependency"] {
		t.Error("disabled rule not in set")
	}
	if !cfg.DisabledAnnotators()["inbound-transfer"] {
		t.Error("disabled annotator not in set")
	}
}

func TestFromYAMLInvalid(t *testing.T) {
	if _, err := FromYAML([]byte("scan: [not, a, mapping]")); err == nil {
		t.Error("expected error for wrong shape")
	}
	if _, err := FromYAML([]byte("rules:\n  disabled:\n    - \"\"")); err == nil {
		t.Error("expected error for empty rule name")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.Collection != "" || len(cfg.Rules.Disabled) != 0 {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}

	if err := os.WriteFile(filepath.Join(dir, "riskline.yml"), []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.Collection != "my.collection" {
		t.Errorf("collection = %q", cfg.Scan.Collection)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing config")
	}
}
