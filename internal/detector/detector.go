package detector

import (
	"strings"

	"go.uber.org/zap"

	"riskline/internal/model"
	"riskline/internal/report"
	"riskline/internal/rules"
)

// Options configure one detection run.
type Options struct {
	// CollectionName is forwarded to every rule check when non-empty.
	CollectionName string
	// PrePass builds the complete role-to-playbook mapping before any rule
	// runs, so role trees report their users regardless of input order. The
	// default is the single-pass view: a role tree processed before its owning
	// playbook tree reports an empty used_in list.
	PrePass bool
	// Logger receives per-tree progress at debug level. Nil is silent.
	Logger *zap.Logger
}

// state is threaded across one run; it is created fresh per Detect call and
// never escapes it except as the rendered results.
type state struct {
	playbookCount      report.Counter
	roleCount          report.Counter
	roleToPlaybook     map[string][]string
	riskFoundPlaybooks map[string]bool
	nextIncident       int

	incidents []report.Incident
	sections  []*report.Section
	secIndex  map[string]*report.Section
	details   []*report.Detail
	detIndex  map[string]*report.Detail
}

func newState() *state {
	return &state{
		roleToPlaybook:     map[string][]string{},
		riskFoundPlaybooks: map[string]bool{},
		nextIncident:       1,
		secIndex:           map[string]*report.Section{},
		detIndex:           map[string]*report.Detail{},
	}
}

// Detect folds the rule set over the forest in input order and renders the
// narrative text and the structured report from the final state.
func Detect(trees []model.TaskCallsInTree, ruleSet []rules.Rule, opts Options) (string, *report.Report) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := rules.Context{CollectionName: opts.CollectionName}

	st := newState()
	if opts.PrePass {
		for _, tree := range trees {
			if model.RootType(tree.RootKey) == model.RootTypePlaybook {
				st.registerRoleUsage(tree, model.RootName(tree.RootKey))
			}
		}
	}
	for i, tree := range trees {
		st.step(tree, ruleSet, ctx)
		logger.Debug("detect", zap.Int("done", i+1), zap.Int("total", len(trees)))
	}
	return report.Narrative(st.data()), st.report()
}

// step processes one tree: classify the root, register role usage for
// playbooks, run every enabled rule, and emit at most one numbered incident.
func (st *state) step(tree model.TaskCallsInTree, ruleSet []rules.Rule, ctx rules.Context) {
	rootType := model.RootType(tree.RootKey)
	if rootType == "" {
		// Trees with an unparsable root key are trusted-input anomalies;
		// skip them without counting or reporting.
		return
	}
	rootName := model.RootName(tree.RootKey)
	isPlaybook := rootType == model.RootTypePlaybook

	if isPlaybook {
		st.playbookCount.Total++
		st.registerRoleUsage(tree, rootName)
	} else {
		st.roleCount.Total++
	}

	var scratch []string
	doReport := false
	for _, rule := range ruleSet {
		if !rule.Enabled() {
			continue
		}
		matched, _, message := rule.Check(tree.TaskCalls, ctx)
		if rule.SeparateReport() {
			sec := st.section(rule)
			if matched {
				sec.Rows = append(sec.Rows, [3]string{rootType, rootName, message})
				st.appendDetail(rule.Name(), report.Result{
					Type:    rootType,
					Name:    rootName,
					Message: message,
				})
			}
			continue
		}
		if matched && !isPlaybook {
			doReport = true
			scratch = append(scratch, rule.Name(), report.Indent(message, 0))
			usedIn := st.usedIn(rootName)
			st.appendDetail(rule.Name(), report.Result{
				Type:                 rootType,
				Name:                 rootName,
				Message:              message,
				PlaybooksUseThisRole: &usedIn,
			})
		}
	}

	if doReport && len(scratch) > 0 {
		usedIn := st.usedIn(rootName)
		for _, p := range usedIn {
			st.riskFoundPlaybooks[p] = true
		}
		st.incidents = append(st.incidents, report.Incident{
			Num:      st.nextIncident,
			RootType: rootType,
			RootName: rootName,
			UsedIn:   usedIn,
			Lines:    scratch,
		})
		st.nextIncident++
		if isPlaybook {
			st.playbookCount.Risk++
		} else {
			st.roleCount.Risk++
		}
	}
}

// registerRoleUsage records (role -> playbook) for every task defined under a
// roles/<name>/ path. The mapping only grows and preserves first-seen order.
func (st *state) registerRoleUsage(tree model.TaskCallsInTree, playbookName string) {
	for i := range tree.TaskCalls {
		parts := strings.Split(tree.TaskCalls[i].Spec.DefinedIn, "/")
		if len(parts) < 2 || parts[0] != "roles" {
			continue
		}
		roleName := parts[1]
		if !contains(st.roleToPlaybook[roleName], playbookName) {
			st.roleToPlaybook[roleName] = append(st.roleToPlaybook[roleName], playbookName)
		}
	}
}

// usedIn snapshots the playbooks currently known to use the role. Later
// mapping growth must not mutate earlier snapshots.
func (st *state) usedIn(roleName string) []string {
	mapped := st.roleToPlaybook[roleName]
	out := make([]string, len(mapped))
	copy(out, mapped)
	return out
}

// section returns the shared table for a tabulated rule, creating it on the
// rule's first check so zero-match rules still render an all-OK section.
func (st *state) section(rule rules.Rule) *report.Section {
	if sec, ok := st.secIndex[rule.Name()]; ok {
		return sec
	}
	sec := &report.Section{RuleName: rule.Name(), AllOKMessage: rule.AllOKMessage()}
	st.secIndex[rule.Name()] = sec
	st.sections = append(st.sections, sec)
	return sec
}

// appendDetail adds a structured-report result under the rule, keeping rules
// in first-match order.
func (st *state) appendDetail(ruleName string, res report.Result) {
	det, ok := st.detIndex[ruleName]
	if !ok {
		det = &report.Detail{Rule: ruleName}
		st.detIndex[ruleName] = det
		st.details = append(st.details, det)
	}
	det.Results = append(det.Results, res)
}

func (st *state) data() report.Data {
	d := report.Data{
		PlaybookTotal:      st.playbookCount.Total,
		RoleTotal:          st.roleCount.Total,
		RoleRisk:           st.roleCount.Risk,
		RiskFoundPlaybooks: len(st.riskFoundPlaybooks),
		Incidents:          st.incidents,
	}
	for _, sec := range st.sections {
		d.Sections = append(d.Sections, *sec)
	}
	return d
}

func (st *state) report() *report.Report {
	rep := &report.Report{Summary: map[string]report.Counter{}, Details: []report.Detail{}}
	if st.playbookCount.Total > 0 {
		rep.Summary["playbooks"] = st.playbookCount
	}
	if st.roleCount.Total > 0 {
		rep.Summary["roles"] = st.roleCount
	}
	for _, det := range st.details {
		rep.Details = append(rep.Details, *det)
	}
	return rep
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
