package rules

import (
	"strings"

	"riskline/internal/model"
)

// ExternalDependency reports, per tree, the collections used beyond
// ansible.builtin and the collection under scan. It renders as one shared
// table across the whole run.
type ExternalDependency struct{}

func NewExternalDependency() Rule { return ExternalDependency{} }

func (ExternalDependency) Name() string         { return "external_dependency" }
func (ExternalDependency) Enabled() bool        { return true }
func (ExternalDependency) SeparateReport() bool { return true }
func (ExternalDependency) AllOKMessage() string {
	return "All " + SubjectPlaceholder + " depend only on ansible.builtin"
}

func (ExternalDependency) Check(taskcalls []model.TaskCall, ctx Context) (bool, any, string) {
	var external []string
	seen := map[string]bool{}
	for i := range taskcalls {
		collection := collectionOf(taskcalls[i].ResolvedName)
		if collection == "" || collection == "ansible.builtin" || collection == ctx.CollectionName {
			continue
		}
		if !seen[collection] {
			seen[collection] = true
			external = append(external, collection)
		}
	}
	return len(external) > 0, external, strings.Join(external, ", ")
}

// collectionOf extracts the collection part of a fully-qualified module name.
// Short names resolve to builtin upstream, so they carry no collection here.
func collectionOf(resolvedName string) string {
	parts := strings.Split(resolvedName, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0] + "." + parts[1]
}
