package rules

import (
	"riskline/internal/model"
)

// SubjectPlaceholder is substituted in all-OK messages with whichever of
// "playbooks", "roles" or "playbooks/roles" were present in the run.
const SubjectPlaceholder = "<subject>"

// Context carries optional keyed arguments forwarded to every rule check.
type Context struct {
	// CollectionName restricts collection-aware rules to modules outside the
	// named collection. Empty means no filter.
	CollectionName string
}

// Rule checks one tree's task calls for a risk.
//
// Check must be pure, deterministic and side-effect-free; the returned message
// may be pre-formatted multi-line text. SeparateReport selects tabulated
// cross-run placement instead of per-tree incident placement.
type Rule interface {
	Name() string
	Enabled() bool
	SeparateReport() bool
	// AllOKMessage is the template rendered when a tabulated rule matched
	// nothing; "" selects the default template.
	AllOKMessage() string
	Check(taskcalls []model.TaskCall, ctx Context) (matched bool, aux any, message string)
}

// registry is the explicit registration table, evaluated in this order.
var registry = []func() Rule{
	NewPackageInstallWithoutVersion,
	NewDownloadWithoutChecksum,
	NewExternalDependency,
}

// All constructs one instance of every registered rule.
func All() []Rule {
	out := make([]Rule, 0, len(registry))
	for _, newFn := range registry {
		out = append(out, newFn())
	}
	return out
}

// Without filters out rules whose names appear in disabled.
func Without(ruleSet []Rule, disabled map[string]bool) []Rule {
	if len(disabled) == 0 {
		return ruleSet
	}
	out := make([]Rule, 0, len(ruleSet))
	for _, r := range ruleSet {
		if !disabled[r.Name()] {
			out = append(out, r)
		}
	}
	return out
}
