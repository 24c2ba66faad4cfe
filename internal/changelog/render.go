package changelog

import (
	"fmt"
	"strings"
)

// RenderSummary formats a changeset as markdown for logs and PR bodies.
func RenderSummary(cs *ChangeSet) string {
	var b strings.Builder

	b.WriteString("## Price catalog update\n\n")
	fmt.Fprintf(&b, "**%d** price decreases, **%d** price increases, **%d** new models, **%d** removed models\n\n",
		cs.Summary.PriceDecreases, cs.Summary.PriceIncreases, cs.Summary.NewModels, cs.Summary.RemovedModels)

	if !cs.HasChanges() {
		b.WriteString("No changes.\n")
		return b.String()
	}

	renderPrices(&b, "Price decreases", cs.ByType(PriceDecrease))
	renderPrices(&b, "Price increases", cs.ByType(PriceIncrease))

	if added := cs.ByType(NewModel); len(added) > 0 {
		b.WriteString("<details>\n<summary>New models</summary>\n\n")
		b.WriteString("| Model | Provider | Input $/M | Output $/M |\n")
		b.WriteString("|-------|----------|-----------|------------|\n")
		for _, c := range added {
			var in, out float64
			if c.Pricing != nil {
				in, out = c.Pricing.InputPerMillion, c.Pricing.OutputPerMillion
			}
			fmt.Fprintf(&b, "| `%s` | %s | %.4g | %.4g |\n", c.ModelID, c.Provider, in, out)
		}
		b.WriteString("\n</details>\n\n")
	}

	if removed := cs.ByType(RemovedModel); len(removed) > 0 {
		b.WriteString("<details>\n<summary>Removed models</summary>\n\n")
		for _, c := range removed {
			fmt.Fprintf(&b, "- `%s` (%s)\n", c.ModelID, c.Provider)
		}
		b.WriteString("\n</details>\n\n")
	}

	return b.String()
}

func renderPrices(b *strings.Builder, title string, changes []Change) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	b.WriteString("| Model | Field | Old $/M | New $/M | Change |\n")
	b.WriteString("|-------|-------|---------|---------|--------|\n")
	for _, c := range changes {
		fmt.Fprintf(b, "| `%s` | %s | %.4g | %.4g | %+.1f%% |\n",
			c.ModelID, strings.TrimSuffix(c.Field, "_per_million"), deref(c.OldValue), deref(c.NewValue), c.PercentChange)
	}
	b.WriteString("\n")
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
