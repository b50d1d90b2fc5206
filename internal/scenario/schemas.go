package scenario

// JSON schema contracts for structured model output. Each builder
// returns the raw schema object attached to an OpenAI-style
// json_schema response format and used for client-side validation.
// The shapes here must stay in lockstep with the structs in types.go.

func stringProp(description string) map[string]interface{} {
	p := map[string]interface{}{"type": "string"}
	if description != "" {
		p["description"] = description
	}
	return p
}

// ScenarioSchema describes a single scenario object.
func ScenarioSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":       stringProp("Short, descriptive title (maximum 20 words)"),
			"description": stringProp("Concise explanation of the scenario (maximum 50 words)"),
			"items": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "string"},
				"minItems": MinItems,
				"maxItems": MaxItems,
			},
		},
		"required":             []interface{}{"title", "description", "items"},
		"additionalProperties": false,
	}
}

// ScenarioListSchema describes the expander response: a list of
// scenario objects under a "scenarios" key.
func ScenarioListSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"scenarios": map[string]interface{}{
				"type":  "array",
				"items": ScenarioSchema(),
			},
		},
		"required":             []interface{}{"scenarios"},
		"additionalProperties": false,
	}
}

// TimelineEstimateSchema describes the ETA facet.
func TimelineEstimateSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"eta": stringProp("Concise sentence describing the estimated timeline"),
		},
		"required":             []interface{}{"eta"},
		"additionalProperties": false,
	}
}

// HistoricalAnalogySchema describes the analogy facet.
func HistoricalAnalogySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"event":      stringProp("Name or brief description of the historical event"),
			"similarity": stringProp("Key similarities between the event and the scenario step"),
			"lesson":     stringProp("Lesson drawn from the event, applied to the scenario step"),
		},
		"required":             []interface{}{"event", "similarity", "lesson"},
		"additionalProperties": false,
	}
}

// StakeholderSetSchema describes the stakeholder-analysis facet.
func StakeholderSetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"stakeholders": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name":        stringProp("Name or type of stakeholder"),
						"role":        stringProp("Role of the stakeholder (e.g., Beneficiary, Regulator, Developer)"),
						"description": stringProp("The stakeholder's part in this specific scenario"),
					},
					"required":             []interface{}{"name", "role", "description"},
					"additionalProperties": false,
				},
				"maxItems": MaxStakeholders,
			},
		},
		"required":             []interface{}{"stakeholders"},
		"additionalProperties": false,
	}
}

// InnovationSchema describes the moonshot facet.
func InnovationSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"idea":       stringProp("Description of the innovative idea"),
			"potential":  stringProp("Potential positive impact of the innovation"),
			"challenges": stringProp("Obstacles to realizing the innovation"),
		},
		"required":             []interface{}{"idea", "potential", "challenges"},
		"additionalProperties": false,
	}
}

// FutureTimelinesSchema describes the futures facet. The wildcard track
// is optional and omitted from "required".
func FutureTimelinesSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"optimistic":  stringProp("Timeline where advancements and adoption happen quickly"),
			"pessimistic": stringProp("Timeline where progress is slow and challenges arise"),
			"realistic":   stringProp("Balanced timeline considering advancements and obstacles"),
			"wildcard":    stringProp("Potential wildcard event (optional)"),
		},
		"required":             []interface{}{"optimistic", "pessimistic", "realistic"},
		"additionalProperties": false,
	}
}

// TopicListSchema describes the auto-generated candidate topic list.
func TopicListSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"topics": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"required":             []interface{}{"topics"},
		"additionalProperties": false,
	}
}
