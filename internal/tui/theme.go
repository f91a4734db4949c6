package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ac picks light/dark variants based on the detected terminal background.
func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorSurfaceFg  lipgloss.TerminalColor = ac("235", "252")
	colorMuted      lipgloss.TerminalColor = ac("244", "243")
	colorAccent     lipgloss.TerminalColor = ac("25", "75")
	colorSelectedBg lipgloss.TerminalColor = ac("189", "237")
	colorSelectedFg lipgloss.TerminalColor = ac("16", "231")
	colorInputBg    lipgloss.TerminalColor = ac("254", "236")
	colorWarn       lipgloss.TerminalColor = ac("130", "214")
	colorError      lipgloss.TerminalColor = ac("160", "203")
	colorOK         lipgloss.TerminalColor = ac("28", "114")
)

func styleMuted() lipgloss.Style   { return lipgloss.NewStyle().Foreground(colorMuted) }
func styleAccent() lipgloss.Style  { return lipgloss.NewStyle().Foreground(colorAccent).Bold(true) }
func styleWarn() lipgloss.Style    { return lipgloss.NewStyle().Foreground(colorWarn) }
func styleError() lipgloss.Style   { return lipgloss.NewStyle().Foreground(colorError).Bold(true) }
func styleOK() lipgloss.Style      { return lipgloss.NewStyle().Foreground(colorOK) }
func styleContent() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorSurfaceFg) }

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true)
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
// noColor (the --no-color flag) and NO_COLOR both force plain ASCII output.
func applyColorProfilePreference(noColor bool) {
	if noColor || strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if profile != termenv.Ascii && (strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit")) {
		profile = termenv.TrueColor
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference honors MINDMAP_TUI_THEME=light|dark|auto, since some
// terminals don't report their background reliably.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MINDMAP_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}
}
