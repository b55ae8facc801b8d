package extractor

import (
	"encoding/json"
	"strings"

	"github.com/tably/tably/pkg/schema"
)

// SystemPrompt is the shared system prompt for all providers.
const SystemPrompt = `You are a data extraction assistant. Extract structured data from the provided content.

Respond with ONLY a valid JSON object. No explanations, no markdown fences.

The object has one key per requested column. Each value is an array of the
values found for that column, in document order. Arrays are parallel: entry
i of every array belongs to record i.

Rules:
1. Use null for a value missing from a record
2. Include every requested column, with an empty array when nothing was found
3. Numbers: numeric value only, no currency symbols or units
4. Dates: ISO 8601 format (YYYY-MM-DD) unless the column says otherwise`

// BuildPrompt creates the user prompt from content and the output contract:
// a Schema when given, a plain column list otherwise, or neither, in which
// case the model picks its own column names. Previous attempt errors are
// included so the model can self-correct.
func BuildPrompt(content string, s *schema.Schema, columns []string, instructions string, previousErr error, maxContentSize int) string {
	var prompt strings.Builder

	prompt.WriteString("Extract structured data from the following content.\n\n")

	switch {
	case s != nil:
		prompt.WriteString(s.PromptDescription())
		prompt.WriteString("\nRespond in this shape:\n")
		prompt.WriteString(responseShape(s.ColumnNames()))
	case len(columns) > 0:
		prompt.WriteString("Extract the following columns: ")
		prompt.WriteString(strings.Join(columns, ", "))
		prompt.WriteString("\n\nRespond in this shape:\n")
		prompt.WriteString(responseShape(columns))
	default:
		prompt.WriteString("Choose column names that fit the content.\n")
		prompt.WriteString("\nRespond in this shape:\n")
		prompt.WriteString(`{"column1": ["value1"], "column2": ["value2"]}`)
	}
	prompt.WriteString("\n")

	if instructions != "" {
		prompt.WriteString("\n## Additional Instructions\n")
		prompt.WriteString(instructions)
		prompt.WriteString("\n")
	}

	if previousErr != nil {
		prompt.WriteString("\n## Previous Attempt Errors\n")
		prompt.WriteString("The previous extraction attempt had these errors:\n")
		prompt.WriteString(previousErr.Error())
		prompt.WriteString("\nCorrect them in your response.\n")
	}

	prompt.WriteString("\n## Content\n")
	prompt.WriteString("```\n")
	prompt.WriteString(TruncateContent(content, maxContentSize))
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// responseShape renders an empty column-to-array skeleton, e.g.
// {"name":[],"price":[]}.
func responseShape(columns []string) string {
	shape := make(map[string][]any, len(columns))
	for _, name := range columns {
		shape[name] = []any{}
	}
	b, err := json.Marshal(shape)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// TruncateContent limits content size to avoid token limits.
// maxLen of 0 means no limit.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "\n\n[Content truncated due to length...]"
}
