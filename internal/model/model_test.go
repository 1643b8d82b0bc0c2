package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAnnotationsByType(t *testing.T) {
	tc := TaskCall{ResolvedName: "ansible.builtin.apt"}
	tc.Annotate(
		VariableAnnotation{ResolvedModuleOptions: []any{map[string]any{"name": "nginx"}}},
		RiskAnnotation{Category: RiskTypePackageInstall, Data: map[string]any{"pkg": "nginx"}},
		RiskAnnotation{Category: RiskTypeInboundTransfer, Data: map[string]any{"src": "http://x"}},
	)

	if got := len(tc.AnnotationsByType(TypeRiskAnnotation)); got != 2 {
		t.Fatalf("risk annotations = %d, want 2", got)
	}
	if got := len(tc.AnnotationsByType(TypeVariableAnnotation)); got != 1 {
		t.Fatalf("variable annotations = %d, want 1", got)
	}

	installs := tc.RiskAnnotations(RiskTypePackageInstall)
	if len(installs) != 1 {
		t.Fatalf("package_install annotations = %d, want 1", len(installs))
	}
	if installs[0].Data["pkg"] != "nginx" {
		t.Errorf("pkg = %v, want nginx", installs[0].Data["pkg"])
	}
}

func TestResolvedModuleOptions(t *testing.T) {
	var tc TaskCall
	if got := tc.ResolvedModuleOptions(); got != nil {
		t.Fatalf("no annotation: got %v, want nil", got)
	}
	tc.Annotate(VariableAnnotation{ResolvedModuleOptions: []any{
		map[string]any{"name": "nginx"},
		map[string]any{"name": "curl"},
	}})
	if got := len(tc.ResolvedModuleOptions()); got != 2 {
		t.Fatalf("resolved options = %d, want 2", got)
	}
}

func TestTaskCallJSONKeepsAnnotationsPrivate(t *testing.T) {
	tc := TaskCall{ResolvedName: "ansible.builtin.apt", Spec: TaskCallSpec{DefinedIn: "roles/web/tasks/main.yml"}}
	tc.Annotate(RiskAnnotation{Category: RiskTypePackageInstall})
	data, err := json.Marshal(tc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "annotation") {
		t.Errorf("annotations leaked into json: %s", data)
	}
}
