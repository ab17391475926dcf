// Package console renders the human-facing parts of a run on stderr: the
// start-up banner and an optional progress bar. The result line itself goes
// to stdout unstyled.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"brutepin/pkg/hashing/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF00")).
			Padding(0, 1).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(8)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Italic(true)
)

// Banner describes a run about to start
type Banner struct {
	RunID     string
	Target    string
	Hash      core.Fingerprint
	Digest    string
	Provider  string
	Backend   string
	PinLength int
	Workers   int
}

// Render returns the banner text
func (b Banner) Render() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("brutepin"))
	if b.RunID != "" {
		sb.WriteString(" " + noteStyle.Render("run "+b.RunID))
	}
	sb.WriteString("\n")
	sb.WriteString(row("Target:", b.Target))
	sb.WriteString(row("Hash:", string(b.Hash)))
	digest := b.Digest
	if b.Provider != "" {
		digest += " (" + b.Provider + ")"
	}
	sb.WriteString(row("Digest:", digest))
	sb.WriteString(noteStyle.Render(fmt.Sprintf("Starting %s search of %d-digit PINs with %d workers",
		b.Backend, b.PinLength, b.Workers)))
	sb.WriteString("\n")
	return sb.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// WriteBanner writes the rendered banner to w
func WriteBanner(w io.Writer, b Banner) error {
	_, err := io.WriteString(w, b.Render())
	return err
}
