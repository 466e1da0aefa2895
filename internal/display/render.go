package display

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/facet"
	"github.com/hammamikhairi/ottobrowse/internal/results"
)

// RenderView formats the items of v from index from onwards, followed by
// the status line. Errored views keep showing nothing but the message.
func RenderView(v results.View, from int) string {
	var b strings.Builder

	switch v.State {
	case results.StateErrored:
		b.WriteString(urgentOutputStyle.Render("  " + v.Message))
		return b.String()
	case results.StateEmpty:
		b.WriteString(secondaryStyle.Render("  " + v.Message))
		return b.String()
	}

	if from < 0 || from > len(v.Items) {
		from = 0
	}
	for i := from; i < len(v.Items); i++ {
		b.WriteString(RenderRecipe(i+1, v.Items[i]))
		b.WriteByte('\n')
	}
	b.WriteString(secondaryStyle.Render("  " + v.Message))
	if v.HasMore() {
		b.WriteString(secondaryStyle.Render(" (type 'more' for the next page)"))
	}
	return b.String()
}

// RenderRecipe formats one result row.
func RenderRecipe(n int, r domain.Recipe) string {
	meta := []string{r.Category}
	if r.PrepMinutes > 0 || r.CookMinutes > 0 {
		meta = append(meta, fmt.Sprintf("prep %s, cook %s", fmtMinutes(r.PrepMinutes), fmtMinutes(r.CookMinutes)))
	}
	meta = append(meta, fmt.Sprintf("%d steps", len(r.Instructions)))
	if len(r.Tags) > 0 {
		meta = append(meta, strings.Join(r.Tags, ", "))
	}

	return fmt.Sprintf("  %s %s  %s",
		secondaryStyle.Render(fmt.Sprintf("%2d.", n)),
		titleStyle.Render(r.Title),
		primaryStyle.Render(strings.Join(meta, " · ")),
	)
}

// RenderChips formats the applied-filter chips on one line.
func RenderChips(chips []facet.Chip) string {
	parts := make([]string, len(chips))
	for i, c := range chips {
		parts[i] = chipStyle.Render(c.Label() + " ×")
	}
	return strings.Join(parts, " ")
}

// ── Helpers ──────────────────────────────────────────────────────

func fmtMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
