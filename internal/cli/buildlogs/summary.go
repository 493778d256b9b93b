package buildlogs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/coral-mesh/coltools/internal/travis"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// renderSummary lists the downloaded and failed jobs of a fetch.
func renderSummary(r *travis.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Build %s: %d of %d job logs downloaded",
		r.BuildID, len(r.Downloaded), len(r.Jobs))))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(r.Dir))
	b.WriteString("\n")

	for _, path := range r.Downloaded {
		b.WriteString(okStyle.Render("  ✓ "))
		b.WriteString(path)
		b.WriteString("\n")
	}
	for _, f := range r.Failed {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  ✗ job %s (%d)", f.Job.Number, f.Job.ID)))
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
		b.WriteString("\n")
	}

	return b.String()
}
