package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/loomonai/loomon/internal/api"
)

// ExportMarkdown renders a conversation transcript as a markdown document.
func ExportMarkdown(conv api.Conversation, msgs []api.Message) string {
	var b strings.Builder

	title := conv.Title
	if title == "" {
		title = "새로운 대화"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "_%s_\n", conv.CreatedAt.Format("2006-01-02 15:04"))

	for _, m := range msgs {
		label := "사용자"
		if m.Role == "assistant" {
			label = "Loomon"
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", label, m.Content)

		if refs := m.Metadata.References; len(refs) > 0 {
			b.WriteString("\n참고자료:\n\n")
			for _, ref := range refs {
				title := ref.Title
				if title == "" {
					title = ref.URL
				}
				fmt.Fprintf(&b, "- [%s](%s)\n", title, ref.URL)
			}
		}
	}
	return b.String()
}

// ExportHTML renders a conversation transcript as a standalone HTML page.
// All content passes through the escaping formatter, so transcripts
// containing markup stay inert.
func ExportHTML(conv api.Conversation, msgs []api.Message) string {
	var b strings.Builder

	title := conv.Title
	if title == "" {
		title = "새로운 대화"
	}

	b.WriteString("<!DOCTYPE html>\n<html lang=\"ko\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n</head>\n<body>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))

	for _, m := range msgs {
		fmt.Fprintf(&b, "<div class=\"message message-%s\">\n", html.EscapeString(m.Role))
		if m.Role == "user" {
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(m.Content))
		} else {
			fmt.Fprintf(&b, "<p>%s</p>\n", FormatHTML(m.Content))
		}

		if refs := m.Metadata.References; len(refs) > 0 {
			b.WriteString("<ul class=\"references\">\n")
			for _, ref := range refs {
				title := ref.Title
				if title == "" {
					title = ref.URL
				}
				fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a> (%s)</li>\n",
					html.EscapeString(ref.URL), html.EscapeString(title), html.EscapeString(Hostname(ref.URL)))
			}
			b.WriteString("</ul>\n")
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}
