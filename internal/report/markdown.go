package report

import (
	"fmt"
	"strings"

	"gopress/domain/run"
	"gopress/domain/tally"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown summarises a tally run: the selection, the outcome table and any
// edge weight summaries.
func Markdown(r *run.TallyRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tally %s\n\n", r.ID)
	fmt.Fprintf(&b, "Evaluated %d simulations at epsilon %g; %d consistent with monitoring (%.1f%%).\n\n",
		r.Total, r.Epsilon, r.Consistent, 100*r.AcceptanceRate())

	b.WriteString("## Selection\n\n")
	b.WriteString("| Node | Press | Monitor |\n|---|:---:|:---:|\n")
	for i, node := range r.Nodes {
		press, monitor := "0", "?"
		if i < len(r.Perturbation) {
			press = r.Perturbation[i].String()
		}
		if i < len(r.Monitoring) {
			monitor = r.Monitoring[i].String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(node), press, monitor)
	}
	b.WriteString("\n")

	b.WriteString("## Outcomes\n\n")
	if r.Empty() {
		b.WriteString("_No simulation was consistent with the monitored outcomes._\n\n")
	} else {
		b.WriteString("| Node | - | 0 | + |\n|---|---:|---:|---:|\n")
		for i, node := range r.Nodes {
			if i >= r.Table.Rows() {
				break
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", escapeCell(node),
				r.Table.Count(i, tally.Negative), r.Table.Count(i, tally.Zero), r.Table.Count(i, tally.Positive))
		}
		b.WriteString("\n")
	}

	if len(r.Weights) > 0 {
		b.WriteString("## Edge weights\n\n")
		b.WriteString("| Edge | n | Mean | Median | Q25 | Q75 | P(>0) |\n|---|---:|---:|---:|---:|---:|---:|\n")
		for _, w := range r.Weights {
			fmt.Fprintf(&b, "| %s | %d | %.3f | %.3f | %.3f | %.3f | %.2f |\n",
				escapeCell(w.Edge.String()), w.N, w.Mean, w.Median, w.Q25, w.Q75, w.FractionPositive)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the markdown summary of r. Raw HTML in node labels is
// dropped so the result can be embedded in a page as is.
func HTML(r *run.TallyRun) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML | html.Safelink,
	})
	return markdown.ToHTML([]byte(Markdown(r)), p, renderer)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
