package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

const separatorWidth = 90

// defaultAllOK is used when a tabulated rule supplies no template of its own.
const defaultAllOK = "  All <subject> are OK"

// Incident is one numbered per-tree section of the narrative report.
type Incident struct {
	Num      int
	RootType string
	RootName string
	UsedIn   []string
	// Lines alternate rule names and their indented messages, in match order.
	Lines []string
}

// Section is one tabulated rule's shared table.
type Section struct {
	RuleName     string
	AllOKMessage string
	Rows         [][3]string
}

// Data is the final aggregation state the narrative is rendered from.
type Data struct {
	PlaybookTotal      int
	RoleTotal          int
	RoleRisk           int
	RiskFoundPlaybooks int
	Incidents          []Incident
	Sections           []Section
}

// Narrative renders the human-readable report: header, summary counts,
// numbered incidents in processing order, then one table per tabulated rule.
func Narrative(d Data) string {
	sep := strings.Repeat("-", separatorWidth) + "\n"
	var b strings.Builder
	b.WriteString(sep)
	b.WriteString("Riskline Report\n")
	b.WriteString(sep)

	if d.PlaybookTotal > 0 {
		b.WriteString("Playbooks\n")
		fmt.Fprintf(&b, "  Total: %d\n", d.PlaybookTotal)
		fmt.Fprintf(&b, "  Risk Found: %d\n", d.RiskFoundPlaybooks)
	}
	if d.RoleTotal > 0 {
		b.WriteString("Roles\n")
		fmt.Fprintf(&b, "  Total: %d\n", d.RoleTotal)
		fmt.Fprintf(&b, "  Risk Found: %d\n", d.RoleRisk)
	}
	b.WriteString(sep)

	for _, inc := range d.Incidents {
		fmt.Fprintf(&b, "#%d %s - %s\n", inc.Num, strings.ToUpper(inc.RootType), inc.RootName)
		if len(inc.UsedIn) > 0 {
			fmt.Fprintf(&b, "(used_in: %v)\n", inc.UsedIn)
		}
		for _, line := range inc.Lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(sep)
	}

	subject := subjectString(d.PlaybookTotal, d.RoleTotal)
	for _, sec := range d.Sections {
		b.WriteString(sec.RuleName)
		b.WriteString("\n")
		if len(sec.Rows) > 0 {
			b.WriteString(Indent(plainTable(sec.Rows), 0))
		} else {
			msg := defaultAllOK
			if sec.AllOKMessage != "" {
				msg = "  " + sec.AllOKMessage
			}
			b.WriteString(strings.ReplaceAll(msg, "<subject>", subject))
		}
		b.WriteString("\n")
		b.WriteString(sep)
	}
	return b.String()
}

// Indent prefixes every non-blank line with level spaces and drops lines that
// contain only whitespace.
func Indent(text string, level int) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.Repeat(" ", level)+line)
	}
	return strings.Join(lines, "\n")
}

// subjectString names what was scanned in this run.
func subjectString(playbookNum, roleNum int) string {
	switch {
	case playbookNum > 0 && roleNum > 0:
		return "playbooks/roles"
	case playbookNum > 0:
		return "playbooks"
	case roleNum > 0:
		return "roles"
	}
	return ""
}

// plainTable renders rows as a borderless column-aligned table.
func plainTable(rows [][3]string) string {
	w := table.NewWriter()
	style := table.StyleDefault
	style.Options.DrawBorder = false
	style.Options.SeparateColumns = false
	style.Options.SeparateFooter = false
	style.Options.SeparateHeader = false
	style.Options.SeparateRows = false
	w.SetStyle(style)
	for _, r := range rows {
		w.AppendRow(table.Row{r[0], r[1], r[2]})
	}
	return w.Render()
}
