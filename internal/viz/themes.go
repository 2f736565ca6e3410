package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme of panels and plots.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warm    lipgloss.Color // upper layer, warming
	Cold    lipgloss.Color // deep layer
	Flux    lipgloss.Color // heat uptake
}

var (
	ThemeThermal = Theme{
		Name:    "thermal",
		Primary: lipgloss.Color("#ff8c42"),
		Accent:  lipgloss.Color("#ffd166"),
		Text:    lipgloss.Color("#f5f5f5"),
		Muted:   lipgloss.Color("#777777"),
		Warm:    lipgloss.Color("#ef476f"),
		Cold:    lipgloss.Color("#118ab2"),
		Flux:    lipgloss.Color("#06d6a0"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#0077be"),
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Warm:    lipgloss.Color("#ff6b6b"),
		Cold:    lipgloss.Color("#00a8cc"),
		Flux:    lipgloss.Color("#00ff88"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warm:    lipgloss.Color("#ffffff"),
		Cold:    lipgloss.Color("#aaaaaa"),
		Flux:    lipgloss.Color("#666666"),
	}

	CurrentTheme = ThemeThermal

	Themes = []Theme{
		ThemeThermal,
		ThemeOcean,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to the thermal theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeThermal
}

// SetTheme changes the current theme and the package styles derived from it.
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
	applyTheme(CurrentTheme)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
