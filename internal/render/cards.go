package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/loomonai/loomon/internal/api"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	refTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	rationaleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Italic(true)
	currentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Hostname extracts the host of a reference URL for compact display. Inputs
// that do not parse as URLs are returned unchanged.
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

// References renders the citation list attached to an internet-mode
// response. An empty list renders nothing.
func References(refs []api.Reference) string {
	if len(refs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("📚 참고자료"))
	for _, ref := range refs {
		title := ref.Title
		if title == "" {
			title = ref.URL
		}
		b.WriteString("\n  " + refTitleStyle.Render(title))
		b.WriteString("\n  " + dimStyle.Render(Hostname(ref.URL)))
	}
	return b.String()
}

// QuestionCard renders one clarifying question: text, priority, rationale,
// and either numbered options or a free-text hint.
func QuestionCard(q api.Question, index, total int) string {
	var b strings.Builder

	header := fmt.Sprintf("질문 %d/%d", index+1, total)
	if q.Priority > 0 {
		header += " " + dimStyle.Render(strings.Repeat("★", clampPriority(q.Priority)))
	}
	b.WriteString(dimStyle.Render(header) + "\n")
	b.WriteString(titleStyle.Render(q.Text))

	if q.Rationale != "" {
		b.WriteString("\n" + rationaleStyle.Render("💡 "+q.Rationale))
	}

	if len(q.Options) > 0 {
		b.WriteString("\n")
		for i, opt := range q.Options {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, opt))
		}
		b.WriteString("\n\n" + dimStyle.Render("번호를 선택하세요"))
	} else {
		hint := "답변을 입력하세요"
		if q.Default != "" {
			hint += fmt.Sprintf(" (기본값: %s)", q.Default)
		}
		b.WriteString("\n\n" + dimStyle.Render(hint+" · Enter로 건너뛰기"))
	}

	return cardStyle.Render(b.String())
}

func clampPriority(p int) int {
	if p > 5 {
		return 5
	}
	if p < 1 {
		return 1
	}
	return p
}

// ConversationRow renders one conversation list entry. Untitled
// conversations get the product's default title.
func ConversationRow(conv api.Conversation) string {
	title := conv.Title
	if title == "" {
		title = "새로운 대화"
	}

	when := conv.CreatedAt
	if conv.LastMessageAt != nil {
		when = *conv.LastMessageAt
	}

	return fmt.Sprintf("%s  %s  %s",
		dimStyle.Render(conv.ID[:min(8, len(conv.ID))]),
		titleStyle.Render(title),
		dimStyle.Render(when.Format("2006-01-02")),
	)
}

// PlanCard renders one subscription plan. The user's current plan is
// marked and offers no selection hint.
func PlanCard(plan api.Plan, current bool) string {
	var b strings.Builder

	name := plan.DisplayName
	if name == "" {
		name = plan.Name
	}
	b.WriteString(titleStyle.Render(name))
	if current {
		b.WriteString("  " + currentStyle.Render("현재 플랜"))
	}

	b.WriteString("\n" + fmt.Sprintf("₩%s / 월", formatPrice(plan.Price)))
	b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("월 %d 토큰", plan.MonthlyLimit)))
	if plan.Description != "" {
		b.WriteString("\n" + plan.Description)
	}
	if !current {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("선택: loomon subscription change %s", plan.Name)))
	}

	return cardStyle.Render(b.String())
}

func formatPrice(price string) string {
	if price == "" {
		return "0"
	}
	return strings.TrimSuffix(price, ".00")
}

// UsageMeter renders the subscription usage bar.
func UsageMeter(u api.Usage) string {
	const width = 24
	pct := u.UsagePercentage
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	filled := int(pct / 100 * width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %.1f%%\n%s", bar, u.UsagePercentage,
		dimStyle.Render(fmt.Sprintf("%d / %d 토큰 사용 (보너스 %d, 남은 토큰 %d)",
			u.CurrentUsage, u.MonthlyLimit, u.BonusTokens, u.Remaining)))
}
