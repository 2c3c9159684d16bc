package agent

import (
	"strings"
)

// parsedResponse holds the components extracted from a ReAct-formatted LLM response.
type parsedResponse struct {
	Thought     string
	Action      string
	ActionInput string
	FinalAnswer string
}

// parseReActResponse extracts Thought, Action, Action Input, and Final Answer
// from a ReAct-formatted LLM response. Anything after a model-written
// Observation line is ignored.
func parseReActResponse(content string) parsedResponse {
	var result parsedResponse
	var section string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "Observation:"):
			return finish(result)

		case strings.HasPrefix(trimmed, "Thought:"):
			section = "thought"
			result.Thought = strings.TrimPrefix(trimmed, "Thought:")

		case strings.HasPrefix(trimmed, "Action Input:"):
			section = "action_input"
			result.ActionInput = strings.TrimPrefix(trimmed, "Action Input:")

		case strings.HasPrefix(trimmed, "Action:"):
			section = "action"
			result.Action = strings.TrimPrefix(trimmed, "Action:")

		case strings.HasPrefix(trimmed, "Final Answer:"):
			section = "final_answer"
			result.FinalAnswer = strings.TrimPrefix(trimmed, "Final Answer:")

		default:
			switch section {
			case "thought":
				result.Thought += "\n" + trimmed
			case "action_input":
				result.ActionInput += "\n" + trimmed
			case "final_answer":
				result.FinalAnswer += "\n" + trimmed
			}
		}
	}

	return finish(result)
}

func finish(r parsedResponse) parsedResponse {
	r.Thought = strings.TrimSpace(r.Thought)
	r.Action = strings.TrimSpace(r.Action)
	r.ActionInput = strings.TrimSpace(r.ActionInput)
	r.FinalAnswer = strings.TrimSpace(r.FinalAnswer)
	return r
}
