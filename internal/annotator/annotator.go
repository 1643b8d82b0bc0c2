package annotator

import (
	"riskline/internal/model"
)

// Annotator attaches risk-relevant annotations to matching task calls.
//
// Match must be a pure predicate over the resolved module name. Run is only
// invoked when the annotator is enabled and Match holds, must re-check Match,
// must fall back to neutral defaults when a dependency annotation is missing,
// and returns an empty slice (never panics) on malformed input. Annotators
// keep no state between invocations.
type Annotator interface {
	Name() string
	Enabled() bool
	// Type is the tag of the annotations this annotator produces.
	Type() string
	Match(tc *model.TaskCall) bool
	Run(tc *model.TaskCall) []model.Annotation
}

// registry is the explicit registration table. New annotators are added here;
// there is no dynamic discovery.
var registry = []func() Annotator{
	NewPackageInstall,
	NewInboundTransfer,
}

// All constructs one instance of every registered annotator.
func All() []Annotator {
	out := make([]Annotator, 0, len(registry))
	for _, newFn := range registry {
		out = append(out, newFn())
	}
	return out
}

// Apply runs every enabled annotator over every task call of every tree,
// attaching the produced annotations in registration order. Names listed in
// disabled are fully inert.
func Apply(trees []model.TaskCallsInTree, disabled map[string]bool) {
	annotators := All()
	for ti := range trees {
		for ci := range trees[ti].TaskCalls {
			tc := &trees[ti].TaskCalls[ci]
			for _, a := range annotators {
				if !a.Enabled() || disabled[a.Name()] {
					continue
				}
				if !a.Match(tc) {
					continue
				}
				tc.Annotate(a.Run(tc)...)
			}
		}
	}
}

// optionsMap narrows module options to a mapping; anything else yields nil so
// concretizers degrade to empty output instead of failing.
func optionsMap(options any) map[string]any {
	m, _ := options.(map[string]any)
	return m
}
