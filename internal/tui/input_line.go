package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine draws the prompt row for add/rename. The row is always one
// visual line wide, padded with the input background.
func renderInputLine(width int, label, inputView string) string {
	if width < 10 {
		width = 10
	}
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		width,
		lipgloss.Left,
		" "+styleAccent().Render(label)+" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > width {
		// Terminate styling so a cut sequence doesn't bleed into the next row.
		line = xansi.Cut(line, 0, width) + "\x1b[0m"
	}
	return line
}
