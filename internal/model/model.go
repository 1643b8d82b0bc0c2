package model

// RiskType categorizes what a RiskAnnotation is about.
type RiskType string

const (
	RiskTypePackageInstall  RiskType = "package_install"
	RiskTypeInboundTransfer RiskType = "inbound_transfer"
	RiskTypeFileChange      RiskType = "file_change"
	RiskTypeCmdExec         RiskType = "cmd_exec"
)

// Annotation type tags. Annotations are queried by tag, not by Go type.
const (
	TypeVariableAnnotation = "variable_annotation"
	TypeRiskAnnotation     = "risk_annotation"
)

// Annotation is metadata attached to a task call by an annotator.
type Annotation interface {
	AnnotationType() string
}

// VariableAnnotation carries the concretized option mappings produced by the
// upstream variable resolver, one entry per possible binding or loop iteration.
type VariableAnnotation struct {
	ResolvedModuleOptions []any `json:"resolved_module_options,omitempty"`
}

func (VariableAnnotation) AnnotationType() string { return TypeVariableAnnotation }

// RiskAnnotation carries risk-relevant fields extracted from module options.
// Data is the best guess from static options; ResolvedData mirrors the
// variable annotation's alternatives in order.
type RiskAnnotation struct {
	Category     RiskType         `json:"category"`
	Data         map[string]any   `json:"data,omitempty"`
	ResolvedData []map[string]any `json:"resolved_data,omitempty"`
}

func (RiskAnnotation) AnnotationType() string { return TypeRiskAnnotation }

// TaskCallSpec is the static definition of a task as written in the source.
type TaskCallSpec struct {
	Name string `json:"name,omitempty"`
	// ModuleOptions is whatever the author wrote under the module key; it is
	// not guaranteed to be a mapping.
	ModuleOptions any    `json:"module_options,omitempty"`
	DefinedIn     string `json:"defined_in"`
}

// TaskCall is one module invocation after collection/role resolution.
type TaskCall struct {
	ResolvedName string       `json:"resolved_name"`
	Spec         TaskCallSpec `json:"spec"`

	annotations []Annotation
}

// Annotate appends annotations in order. Called by annotators only; once the
// annotation passes complete the task call is read-only.
func (t *TaskCall) Annotate(annotations ...Annotation) {
	t.annotations = append(t.annotations, annotations...)
}

// AnnotationsByType returns the annotations carrying the given type tag,
// preserving attachment order.
func (t *TaskCall) AnnotationsByType(typ string) []Annotation {
	var out []Annotation
	for _, a := range t.annotations {
		if a.AnnotationType() == typ {
			out = append(out, a)
		}
	}
	return out
}

// RiskAnnotations returns risk annotations of the given category.
func (t *TaskCall) RiskAnnotations(category RiskType) []RiskAnnotation {
	var out []RiskAnnotation
	for _, a := range t.annotations {
		if ra, ok := a.(RiskAnnotation); ok && ra.Category == category {
			out = append(out, ra)
		}
	}
	return out
}

// ResolvedModuleOptions returns the resolved option alternatives from the
// first variable annotation, or nil when none is attached.
func (t *TaskCall) ResolvedModuleOptions() []any {
	annos := t.AnnotationsByType(TypeVariableAnnotation)
	if len(annos) == 0 {
		return nil
	}
	va, ok := annos[0].(VariableAnnotation)
	if !ok {
		return nil
	}
	return va.ResolvedModuleOptions
}

// TaskCallsInTree is one root (playbook or role) plus every task call
// transitively reachable from it, in traversal order.
type TaskCallsInTree struct {
	RootKey   string     `json:"root_key"`
	TaskCalls []TaskCall `json:"taskcalls"`
}
