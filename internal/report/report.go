package report

// Counter tracks how many trees of one category were scanned and how many had
// risk findings.
type Counter struct {
	Total int `json:"total"`
	Risk  int `json:"risk_found"`
}

// Result is one rule finding in the structured report.
type Result struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Message string `json:"message"`
	// Set (possibly to an empty list) for inline-rule findings on roles;
	// absent for tabulated-rule findings.
	PlaybooksUseThisRole *[]string `json:"playbooks_use_this_role,omitempty"`
}

// Detail groups one rule's findings across the whole run.
type Detail struct {
	Rule    string   `json:"rule"`
	Results []Result `json:"results"`
}

// Report is the machine-readable output. Its shape is stable independent of
// any cosmetic change to the narrative text.
type Report struct {
	Summary map[string]Counter `json:"summary"`
	Details []Detail           `json:"details"`
}
