package quizgen

// QuizSchema is the JSON schema the model's quiz output must satisfy.
var QuizSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questions_count": map[string]any{
			"type":        "integer",
			"const":       10,
			"description": "Number of questions in the quiz",
		},
		"min_passing_marks": map[string]any{
			"type":        "integer",
			"const":       8,
			"description": "Correct answers needed to pass",
		},
		"meta_data": map[string]any{
			"type":        []any{"string", "null"},
			"description": "Optional notes about the quiz as a whole",
		},
		"questions": map[string]any{
			"type":     "array",
			"minItems": 10,
			"maxItems": 10,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic": map[string]any{
						"type":        "string",
						"description": "The SQL topic the question covers",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "The question text",
					},
					"options": map[string]any{
						"type":     "array",
						"minItems": 4,
						"maxItems": 4,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"id":         map[string]any{"type": "integer", "minimum": 1, "maximum": 4},
								"text":       map[string]any{"type": "string"},
								"is_correct": map[string]any{"type": "boolean"},
							},
							"required":             []any{"id", "text", "is_correct"},
							"additionalProperties": false,
						},
					},
					"correct_option_id": map[string]any{
						"type":        "integer",
						"minimum":     1,
						"maximum":     4,
						"description": "id of the single option whose is_correct is true",
					},
					"meta_data": map[string]any{
						"type":        "string",
						"description": "Table schema or sample data the question relies on, or an empty string",
					},
				},
				"required":             []any{"topic", "description", "options", "correct_option_id", "meta_data"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"questions"},
	"additionalProperties": false,
}
