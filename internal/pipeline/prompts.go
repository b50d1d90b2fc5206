package pipeline

import "fmt"

// Prompt templates for every pipeline step. The pipeline treats these
// as opaque parameters; only the schemas attached alongside them are
// contractual.

func expandPrompt(topic string, count int) string {
	return fmt.Sprintf(`Imagine a future shaped by the following topic: %q

Describe %d detailed and distinct scenarios illustrating how this future could unfold, related to the given topic.

Ensure that each scenario explores a unique aspect of the topic and does not overlap significantly with other scenarios. Consider a wide range of domains where the topic could have a transformative impact, such as:

- Social impact and governance
- Environmental protection and resource management
- Scientific breakthroughs and technological innovation
- Healthcare, well-being, and longevity
- Education, creativity, and self-fulfillment

Each scenario object should include:
- "title": A short, descriptive title (maximum 20 words).
- "description": A concise explanation of the scenario (maximum 50 words).
- "items": A list of 3 to 5 specific steps or events that contribute to the scenario.`, topic, count)
}

func etaPrompt(item string) string {
	return fmt.Sprintf(`Consider the following step towards a future scenario: %q

Provide your best estimate for when this step could be realized, considering current technological trends and potential advancements.

Respond with a JSON object holding a single "eta" field: a concise sentence describing the estimated timeline.

Be specific and provide a realistic timeframe whenever possible (e.g., "Within the next 5 years," "By the early 2030s," "Likely beyond 2050"). If the timeframe is highly uncertain, acknowledge the uncertainty and explain why.`, item)
}

func analogyPrompt(item string) string {
	return fmt.Sprintf(`Consider this step towards a future scenario: %q

Provide a historical analogy that highlights a similar advancement or event that had a significant impact on humanity.

Respond with a JSON object holding:
- "event": Name or brief description of the historical event
- "similarity": Explanation of the key similarities between the historical event and the scenario step
- "lesson": A valuable lesson or insight that can be drawn from the historical event and applied to the scenario

Focus on analogies that:
- Demonstrate the potential impact of comparable advancements.
- Highlight the importance of careful planning, ethical considerations, and societal adaptation.
- Offer valuable lessons for navigating the challenges and opportunities of the scenario.`, item)
}

func stakeholdersPrompt(item string) string {
	return fmt.Sprintf(`Identify up to 5 key stakeholders who would be significantly affected by the following scenario step: %q

Consider governments, businesses, individuals, specific communities, or other relevant groups.

Respond with a JSON object holding a "stakeholders" array; each entry has:
- "name": Name or type of stakeholder
- "role": Role of the stakeholder (e.g., Beneficiary, Regulator, Developer)
- "description": Brief description of the stakeholder's role in this specific scenario`, item)
}

func innovationPrompt(item string) string {
	return fmt.Sprintf(`Consider this step towards a future scenario: %q

Generate a "moonshot" idea or innovation that could significantly enhance or accelerate this step, pushing the boundaries of what's currently possible.

Respond with a JSON object holding:
- "idea": Description of the innovative idea
- "potential": Explanation of the potential positive impact of this innovation
- "challenges": Potential challenges or obstacles to realizing this innovation`, item)
}

func futuresPrompt(item string) string {
	return fmt.Sprintf(`Consider this step towards a future scenario: %q

Generate three potential future timelines for this step:

* **Optimistic:** A timeline where advancements and adoption happen quickly and smoothly.
* **Pessimistic:** A timeline where progress is slow, and challenges arise.
* **Realistic:** A balanced timeline considering both potential advancements and likely obstacles.

Optionally, include a "wildcard" event or breakthrough that could significantly alter any of these timelines.

Respond with a JSON object holding "optimistic", "pessimistic", "realistic", and optionally "wildcard" fields.`, item)
}
