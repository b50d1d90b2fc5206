// Package render assembles a sealed RunResult into a Markdown
// document. Rendering is a pure function: the same RunResult always
// yields byte-identical output.
package render

import (
	"fmt"
	"strings"

	"futurecast/internal/scenario"
)

// Markdown renders the full document for a sealed run. Section order:
// document title, topic line, then per scenario its title and
// description followed by one sub-section per item. Optional facet
// fields that are absent are omitted entirely, never rendered as empty
// placeholders.
func Markdown(r *scenario.RunResult) string {
	var b strings.Builder

	b.WriteString("# Future Scenarios\n\n")
	fmt.Fprintf(&b, "Based on the topic: %q\n\n", r.Topic)
	fmt.Fprintf(&b, "%d distinct scenario(s) illustrating how this future could unfold.\n\n", len(r.Scenarios))

	for _, sr := range r.Scenarios {
		b.WriteString(scenarioMarkdown(sr))
	}

	return b.String()
}

func scenarioMarkdown(sr scenario.ScenarioResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", sr.Scenario.Title)
	fmt.Fprintf(&b, "%s\n\n", sr.Scenario.Description)

	for _, item := range sr.Items {
		fmt.Fprintf(&b, "### %s\n\n", item.Item)
		fmt.Fprintf(&b, "**ETA:** %s\n\n", item.ETA.ETA)

		b.WriteString("**Future Timelines:**\n\n")
		fmt.Fprintf(&b, "- **Optimistic:** %s\n", item.FutureTimelines.Optimistic)
		fmt.Fprintf(&b, "- **Pessimistic:** %s\n", item.FutureTimelines.Pessimistic)
		fmt.Fprintf(&b, "- **Realistic:** %s\n", item.FutureTimelines.Realistic)
		if item.FutureTimelines.Wildcard != "" {
			fmt.Fprintf(&b, "- **Wildcard Event:** %s\n", item.FutureTimelines.Wildcard)
		}
		b.WriteString("\n")

		b.WriteString("**Historical Analogy:**\n\n")
		fmt.Fprintf(&b, "- **Event:** %s\n", item.Analogy.Event)
		fmt.Fprintf(&b, "- **Similarity:** %s\n", item.Analogy.Similarity)
		fmt.Fprintf(&b, "- **Lesson:** %s\n\n", item.Analogy.Lesson)

		b.WriteString("**Stakeholders:**\n\n")
		for _, s := range item.Stakeholders {
			if s.Description != "" {
				fmt.Fprintf(&b, "- **%s:** %s - %s\n", s.Name, s.Role, s.Description)
			} else {
				fmt.Fprintf(&b, "- **%s:** %s\n", s.Name, s.Role)
			}
		}
		b.WriteString("\n")

		b.WriteString("**Innovation - Moonshot Idea:**\n\n")
		fmt.Fprintf(&b, "%s\n\n", item.Innovation.Idea)
		fmt.Fprintf(&b, "**Potential Impact:** %s\n\n", item.Innovation.Potential)
		fmt.Fprintf(&b, "**Challenges:** %s\n\n", item.Innovation.Challenges)
	}

	return b.String()
}
