package annotator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"riskline/internal/model"
)

func TestPackageFields(t *testing.T) {
	cases := []struct {
		name    string
		options any
		want    map[string]any
	}{
		{
			name:    "absent state becomes delete",
			options: map[string]any{"name": "wget", "state": "absent"},
			want:    map[string]any{"pkg": "wget", "delete": true},
		},
		{
			name:    "pinned install",
			options: map[string]any{"name": "nginx", "version": "1.25.3"},
			want:    map[string]any{"pkg": "nginx", "version": "1.25.3"},
		},
		{
			name:    "unrecognized keys dropped",
			options: map[string]any{"name": "curl", "update_cache": true},
			want:    map[string]any{"pkg": "curl"},
		},
		{
			name:    "non-mapping options",
			options: "name=wget state=absent",
			want:    map[string]any{},
		},
		{
			name:    "nil options",
			options: nil,
			want:    map[string]any{},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := packageFields(c.options)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("packageFields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransferFields(t *testing.T) {
	got := transferFields(map[string]any{
		"url":            "https://example.com/a.tgz",
		"dest":           "/tmp/a.tgz",
		"validate_certs": false,
	})
	want := map[string]any{
		"src":      "https://example.com/a.tgz",
		"dest":     "/tmp/a.tgz",
		"insecure": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transferFields mismatch (-want +got):\n%s", diff)
	}

	if got := transferFields([]any{"not", "a", "map"}); len(got) != 0 {
		t.Errorf("non-mapping options: got %v, want empty", got)
	}
}

func TestPackageInstallRun(t *testing.T) {
	tc := model.TaskCall{
		ResolvedName: "ansible.builtin.apt",
		Spec: model.TaskCallSpec{
			ModuleOptions: map[string]any{"name": "{{ pkg_name }}"},
			DefinedIn:     "roles/web/tasks/main.yml",
		},
	}
	tc.Annotate(model.VariableAnnotation{ResolvedModuleOptions: []any{
		map[string]any{"name": "nginx"},
		map[string]any{"name": "nginx", "version": "1.25.3"},
	}})

	annos := NewPackageInstall().Run(&tc)
	if len(annos) != 1 {
		t.Fatalf("annotations = %d, want 1", len(annos))
	}
	ra, ok := annos[0].(model.RiskAnnotation)
	if !ok {
		t.Fatalf("annotation is %T, want RiskAnnotation", annos[0])
	}
	if ra.Category != model.RiskTypePackageInstall {
		t.Errorf("category = %q", ra.Category)
	}
	if ra.Data["pkg"] != "{{ pkg_name }}" {
		t.Errorf("data.pkg = %v", ra.Data["pkg"])
	}
	if len(ra.ResolvedData) != 2 {
		t.Fatalf("resolved_data = %d, want 2", len(ra.ResolvedData))
	}
	if ra.ResolvedData[1]["version"] != "1.25.3" {
		t.Errorf("resolved_data[1].version = %v", ra.ResolvedData[1]["version"])
	}
}

func TestMatch(t *testing.T) {
	pkg := NewPackageInstall()
	xfer := NewInboundTransfer()
	cases := []struct {
		resolved string
		wantPkg  bool
		wantXfer bool
	}{
		{"ansible.builtin.apt", true, false},
		{"ansible.builtin.yum", true, false},
		{"community.general.homebrew", true, false},
		{"ansible.builtin.get_url", false, true},
		{"ansible.builtin.debug", false, false},
	}
	for _, c := range cases {
		tc := model.TaskCall{ResolvedName: c.resolved}
		if got := pkg.Match(&tc); got != c.wantPkg {
			t.Errorf("package-install.Match(%q) = %v, want %v", c.resolved, got, c.wantPkg)
		}
		if got := xfer.Match(&tc); got != c.wantXfer {
			t.Errorf("inbound-transfer.Match(%q) = %v, want %v", c.resolved, got, c.wantXfer)
		}
	}
}

func TestApply(t *testing.T) {
	trees := []model.TaskCallsInTree{
		{
			RootKey: "role:web",
			TaskCalls: []model.TaskCall{
				{ResolvedName: "ansible.builtin.apt", Spec: model.TaskCallSpec{ModuleOptions: map[string]any{"name": "nginx"}}},
				{ResolvedName: "ansible.builtin.get_url", Spec: model.TaskCallSpec{ModuleOptions: map[string]any{"url": "https://example.com"}}},
				{ResolvedName: "ansible.builtin.debug"},
			},
		},
	}
	Apply(trees, nil)

	if got := len(trees[0].TaskCalls[0].RiskAnnotations(model.RiskTypePackageInstall)); got != 1 {
		t.Errorf("apt annotations = %d, want 1", got)
	}
	if got := len(trees[0].TaskCalls[1].RiskAnnotations(model.RiskTypeInboundTransfer)); got != 1 {
		t.Errorf("get_url annotations = %d, want 1", got)
	}
	if got := len(trees[0].TaskCalls[2].AnnotationsByType(model.TypeRiskAnnotation)); got != 0 {
		t.Errorf("debug annotations = %d, want 0", got)
	}
}

func TestApplyDisabled(t *testing.T) {
	trees := []model.TaskCallsInTree{
		{
			RootKey: "role:web",
			TaskCalls: []model.TaskCall{
				{ResolvedName: "ansible.builtin.apt", Spec: model.TaskCallSpec{ModuleOptions: map[string]any{"name": "nginx"}}},
			},
		},
	}
	Apply(trees, map[string]bool{"package-install": true})
	if got := len(trees[0].TaskCalls[0].AnnotationsByType(model.TypeRiskAnnotation)); got != 0 {
		t.Errorf("disabled annotator still ran: %d annotations", got)
	}
}
