package align

import (
	"fmt"
	"strings"
)

const ruleWidth = 80

// RenderText formats an alignment as a plain-text listing for terminals and
// logs.
func RenderText(aligned []AlignedFood) string {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(&b, "\n%s\nVisual-weight alignment\n%s\n\n", rule, rule)

	for i, a := range aligned {
		status := "matched"
		if !a.Matched() {
			status = "unmatched (visual estimate)"
		}
		fmt.Fprintf(&b, "Item #%d:\n", i+1)
		fmt.Fprintf(&b, "  class:      %s\n", a.Food.ClassName)
		fmt.Fprintf(&b, "  position:   (%.1f, %.1f)\n", a.Food.CenterX, a.Food.CenterY)
		fmt.Fprintf(&b, "  weight:     %.2fg\n", a.Weight)
		fmt.Fprintf(&b, "  status:     %s\n", status)
		if a.Matched() {
			fmt.Fprintf(&b, "  event:      #%d\n", a.WeightEventIndex)
		}
		fmt.Fprintf(&b, "  confidence: %.2f%%\n", a.ConfidenceScore*100)
		b.WriteString(strings.Repeat("-", ruleWidth))
		b.WriteByte('\n')
	}
	return b.String()
}
