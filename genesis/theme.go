package genesis

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ThemeRule styles one token category. Foreground is a #rrggbb colour and
// FontStyle a space separated list of bold, italic and underline.
type ThemeRule struct {
	Token      string `yaml:"token" json:"token"`
	Foreground string `yaml:"foreground" json:"foreground"`
	FontStyle  string `yaml:"font_style,omitempty" json:"fontStyle,omitempty"`
}

// Theme is the category → style table handed to the host editor.
type Theme struct {
	Name    string            `yaml:"name" json:"name"`
	Base    string            `yaml:"base" json:"base"`
	Inherit bool              `yaml:"inherit" json:"inherit"`
	Rules   []ThemeRule       `yaml:"rules" json:"rules"`
	Colors  map[string]string `yaml:"colors,omitempty" json:"colors,omitempty"`
}

// Theme presets.
const (
	ThemeLight = "genesis-theme"
	ThemeDark  = "genesis-dark"
)

// DefaultTheme returns the light theme.
func DefaultTheme() Theme {
	return Theme{
		Name:    ThemeLight,
		Base:    "vs",
		Inherit: true,
		Rules: []ThemeRule{
			{Token: MarkerActive.String(), Foreground: "#E53935"},
			{Token: MarkerInactive.String(), Foreground: "#9E9E9E", FontStyle: "italic"},
			{Token: AtomContent.String(), Foreground: "#000000"},
			{Token: EnvelopeOpen.String(), Foreground: "#0277BD"},
			{Token: EnvelopeClose.String(), Foreground: "#0277BD"},
			{Token: EnvelopeContent.String(), Foreground: "#01395a", FontStyle: "bold"},
			{Token: Registration.String(), Foreground: "#50fa7b"},
			{Token: Comment.String(), Foreground: "#6272a4", FontStyle: "italic"},
		},
		Colors: map[string]string{
			"editor.background":              "#FFFFFF",
			"editor.foreground":              "#000000",
			"editorLineNumber.foreground":    "#9E9E9E",
			"editorCursor.foreground":        "#000000",
			"editor.selectionBackground":     "#E3F2FD",
			"editor.lineHighlightBackground": "#F5F5F5",
		},
	}
}

// DarkTheme returns the dark theme.
func DarkTheme() Theme {
	return Theme{
		Name:    ThemeDark,
		Base:    "vs-dark",
		Inherit: true,
		Rules: []ThemeRule{
			{Token: MarkerActive.String(), Foreground: "#ff79c6", FontStyle: "bold"},
			{Token: MarkerInactive.String(), Foreground: "#6272a4", FontStyle: "italic"},
			{Token: AtomContent.String(), Foreground: "#f8f8f2"},
			{Token: EnvelopeOpen.String(), Foreground: "#bd93f9"},
			{Token: EnvelopeClose.String(), Foreground: "#bd93f9"},
			{Token: EnvelopeContent.String(), Foreground: "#f1fa8c", FontStyle: "bold"},
			{Token: Registration.String(), Foreground: "#50fa7b"},
			{Token: Comment.String(), Foreground: "#6272a4", FontStyle: "italic"},
		},
		Colors: map[string]string{
			"editor.background":                  "#282a36",
			"editor.foreground":                  "#f8f8f2",
			"editor.lineHighlightBackground":     "#44475a",
			"editor.selectionBackground":         "#44475a",
			"editor.inactiveSelectionBackground": "#44475a70",
		},
	}
}

// PresetTheme looks a preset up by name; "light" and "dark" are accepted as
// short forms.
func PresetTheme(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "light", ThemeLight:
		return DefaultTheme(), nil
	case "dark", ThemeDark:
		return DarkTheme(), nil
	default:
		return Theme{}, fmt.Errorf("unknown theme preset %q (use light or dark)", name)
	}
}

// Rule returns the rule for a category.
func (t Theme) Rule(c Category) (ThemeRule, bool) {
	name := c.String()
	for _, r := range t.Rules {
		if r.Token == name {
			return r, true
		}
	}
	return ThemeRule{}, false
}

// Bold reports whether the rule's font style includes bold.
func (r ThemeRule) Bold() bool { return hasFontStyle(r.FontStyle, "bold") }

// Italic reports whether the rule's font style includes italic.
func (r ThemeRule) Italic() bool { return hasFontStyle(r.FontStyle, "italic") }

// Underline reports whether the rule's font style includes underline.
func (r ThemeRule) Underline() bool { return hasFontStyle(r.FontStyle, "underline") }

func hasFontStyle(fontStyle, want string) bool {
	for _, f := range strings.Fields(fontStyle) {
		if f == want {
			return true
		}
	}
	return false
}

// WithOverrides returns a copy of the theme with rules replaced. Keys are
// category names; values are "#rrggbb [bold] [italic] [underline]".
func (t Theme) WithOverrides(overrides map[string]string) (Theme, error) {
	out := t
	out.Rules = append([]ThemeRule(nil), t.Rules...)
	for token, value := range overrides {
		if _, err := ParseCategory(token); err != nil {
			return Theme{}, fmt.Errorf("theme override: %w", err)
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return Theme{}, fmt.Errorf("theme override %s: empty value", token)
		}
		rule := ThemeRule{Token: token, Foreground: fields[0], FontStyle: strings.Join(fields[1:], " ")}
		replaced := false
		for i := range out.Rules {
			if out.Rules[i].Token == token {
				out.Rules[i] = rule
				replaced = true
			}
		}
		if !replaced {
			out.Rules = append(out.Rules, rule)
		}
	}
	if err := out.Validate(); err != nil {
		return Theme{}, err
	}
	return out, nil
}

// Validate checks that every rule names a known category, carries a valid
// colour and only known font styles.
func (t Theme) Validate() error {
	var errs []error
	for i, r := range t.Rules {
		if _, err := ParseCategory(r.Token); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		if _, err := NormalizeColor(r.Foreground); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, r.Token, err))
		}
		for _, f := range strings.Fields(r.FontStyle) {
			switch f {
			case "bold", "italic", "underline":
			default:
				errs = append(errs, fmt.Errorf("rule %d (%s): unknown font style %q", i, r.Token, f))
			}
		}
	}
	return errors.Join(errs...)
}

// NormalizeColor accepts rrggbb, #rrggbb, rgb or #rgb and returns #rrggbb.
func NormalizeColor(c string) (string, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(c), "#")
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", fmt.Errorf("invalid colour %q", c)
		}
	}
	switch len(hex) {
	case 6:
		return "#" + hex, nil
	case 3:
		return "#" + string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}), nil
	default:
		return "", fmt.Errorf("invalid colour %q", c)
	}
}

// LoadTheme decodes a YAML theme and validates it. Foreground colours are
// normalized to #rrggbb.
func LoadTheme(r io.Reader) (Theme, error) {
	var t Theme
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return Theme{}, fmt.Errorf("decoding theme: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Theme{}, fmt.Errorf("invalid theme %q: %w", t.Name, err)
	}
	for i := range t.Rules {
		t.Rules[i].Foreground, _ = NormalizeColor(t.Rules[i].Foreground)
	}
	return t, nil
}

// WriteYAML encodes the theme as YAML.
func (t Theme) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encoding theme: %w", err)
	}
	return enc.Close()
}
