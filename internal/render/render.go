// Package render turns token streams into styled terminal text.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/magnusknutas/genesis/genesis"
)

// Styles maps each category to a lipgloss style.
type Styles map[genesis.Category]lipgloss.Style

// StylesFromTheme builds lipgloss styles from a theme's rules. Categories
// without a rule render unstyled.
func StylesFromTheme(t genesis.Theme) Styles {
	styles := make(Styles, len(t.Rules))
	for _, c := range genesis.Categories() {
		rule, ok := t.Rule(c)
		if !ok {
			continue
		}
		style := lipgloss.NewStyle()
		if color, err := genesis.NormalizeColor(rule.Foreground); err == nil {
			style = style.Foreground(lipgloss.Color(color))
		}
		styles[c] = style.
			Bold(rule.Bold()).
			Italic(rule.Italic()).
			Underline(rule.Underline())
	}
	return styles
}

// Line renders one tokenized line. Bytes of line not covered by any token
// are written unstyled, so a partial token list still prints the full line.
func (s Styles) Line(line string, tokens []genesis.Token) string {
	var sb strings.Builder
	lastPos := 0
	for _, tok := range tokens {
		start, end := tok.Span.Start, min(tok.Span.End, len(line))
		if start < lastPos || start >= end {
			continue
		}
		sb.WriteString(line[lastPos:start])
		if style, ok := s[tok.Category]; ok {
			sb.WriteString(style.Render(line[start:end]))
		} else {
			sb.WriteString(line[start:end])
		}
		lastPos = end
	}
	if lastPos < len(line) {
		sb.WriteString(line[lastPos:])
	}
	return sb.String()
}

// Document renders lines and their tokens joined by newlines.
func (s Styles) Document(lines []string, tokens [][]genesis.Token) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		var lineTokens []genesis.Token
		if i < len(tokens) {
			lineTokens = tokens[i]
		}
		out[i] = s.Line(line, lineTokens)
	}
	return strings.Join(out, "\n")
}

// Legend renders one sample per category, for `genesis theme`.
func (s Styles) Legend() string {
	var sb strings.Builder
	for _, c := range genesis.Categories() {
		name := c.String()
		if style, ok := s[c]; ok {
			name = style.Render(name)
		}
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	return sb.String()
}
