package loader

import (
	"os"
	"path/filepath"
	"testing"
)

const forestJSON = `[
  {
    "root_key": "playbook:playbooks/site.yml",
    "taskcalls": [
      {
        "resolved_name": "ansible.builtin.apt",
        "spec": {
          "name": "install nginx",
          "module_options": {"name": "nginx", "state": "present"},
          "defined_in": "roles/web/tasks/main.yml"
        }
      }
    ]
  }
]`

func TestFromJSONBareArray(t *testing.T) {
	trees, err := FromJSON([]byte(forestJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 1 {
		t.Fatalf("trees = %d, want 1", len(trees))
	}
	if trees[0].RootKey != "playbook:playbooks/site.yml" {
		t.Errorf("root_key = %q", trees[0].RootKey)
	}
	if len(trees[0].TaskCalls) != 1 {
		t.Fatalf("taskcalls = %d, want 1", len(trees[0].TaskCalls))
	}
	tc := trees[0].TaskCalls[0]
	if tc.ResolvedName != "ansible.builtin.apt" {
		t.Errorf("resolved_name = %q", tc.ResolvedName)
	}
	opts, ok := tc.Spec.ModuleOptions.(map[string]any)
	if !ok {
		t.Fatalf("module_options is %T, want map", tc.Spec.ModuleOptions)
	}
	if opts["name"] != "nginx" {
		t.Errorf("module_options.name = %v", opts["name"])
	}
}

func TestFromJSONWrapper(t *testing.T) {
	trees, err := FromJSON([]byte(`{"trees": ` + forestJSON + `}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 1 {
		t.Fatalf("trees = %d, want 1", len(trees))
	}
}

func TestFromJSONInvalid(t *testing.T) {
	if _, err := FromJSON([]byte(`{"trees": 42}`)); err == nil {
		t.Error("expected error for non-array trees")
	}
	if _, err := FromJSON([]byte(`not json`)); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks_in_trees.json")
	if err := os.WriteFile(path, []byte(forestJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	trees, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 1 {
		t.Fatalf("trees = %d, want 1", len(trees))
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
