// Package render turns backend responses into display text. It has two
// targets: ANSI-styled terminal output and escaped HTML for transcript
// export. Formatting is a small markdown subset (bold, italic, inline code,
// code blocks) applied over fully escaped text, so message content can
// never inject markup.
package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	codeBlockRe  = regexp.MustCompile("(?s)```(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.+?)\*`)
)

// FormatHTML renders message content as an HTML fragment. The text is
// escaped first and markdown replacements operate on the escaped form, so
// escaping is total: a literal <script> in the content stays literal.
func FormatHTML(text string) string {
	h := html.EscapeString(text)
	h = codeBlockRe.ReplaceAllString(h, "<pre><code>$1</code></pre>")
	h = inlineCodeRe.ReplaceAllString(h, "<code>$1</code>")
	h = boldRe.ReplaceAllString(h, "<strong>$1</strong>")
	h = italicRe.ReplaceAllString(h, "<em>$1</em>")
	h = strings.ReplaceAll(h, "\n", "<br>")
	return h
}

var (
	codeBlockStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	inlineCodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	boldStyle       = lipgloss.NewStyle().Bold(true)
	italicStyle     = lipgloss.NewStyle().Italic(true)
)

// FormatANSI renders message content for a terminal using the same
// markdown subset as FormatHTML.
func FormatANSI(text string) string {
	out := codeBlockRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := strings.Trim(m, "`")
		inner = strings.TrimPrefix(inner, "\n")
		inner = strings.TrimSuffix(inner, "\n")
		return "\n" + codeBlockStyle.Render(inner) + "\n"
	})
	out = inlineCodeRe.ReplaceAllStringFunc(out, func(m string) string {
		return inlineCodeStyle.Render(strings.Trim(m, "`"))
	})
	out = boldRe.ReplaceAllStringFunc(out, func(m string) string {
		return boldStyle.Render(strings.TrimPrefix(strings.TrimSuffix(m, "**"), "**"))
	})
	out = italicRe.ReplaceAllStringFunc(out, func(m string) string {
		return italicStyle.Render(strings.Trim(m, "*"))
	})
	return out
}
