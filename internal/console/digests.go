package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"brutepin/pkg/hashing/factory"
)

var digestStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#9CA3AF")).
	Width(12)

// RenderDigests returns the registered digests in preference order, one per
// line, marking the method an unset --digest resolves to.
func RenderDigests(report *factory.DetectionReport) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("digests"))
	sb.WriteString(" " + noteStyle.Render(fmt.Sprintf("%d available", report.TotalMethods)))
	sb.WriteString("\n")
	for _, m := range report.Methods {
		caps := m.Capabilities
		line := fmt.Sprintf("%d hex chars, %s", caps.HexLength, caps.Provider)
		var marks []string
		if m.Name == report.BestMethod {
			marks = append(marks, "best")
		}
		if caps.Default {
			marks = append(marks, "default")
		}
		if len(marks) > 0 {
			line += " " + noteStyle.Render("("+strings.Join(marks, ", ")+")")
		}
		sb.WriteString(digestStyle.Render(m.Name) + " " + valueStyle.Render(line) + "\n")
	}
	return sb.String()
}

// WriteDigests writes the rendered digest list to w
func WriteDigests(w io.Writer, report *factory.DetectionReport) error {
	_, err := io.WriteString(w, RenderDigests(report))
	return err
}
