package openai

import (
	"fmt"
	"strings"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const systemPromptFixJSON = "You are a JSON repair tool. Return only one valid JSON object. Keep every key and value, fix only the syntax."

// BuildMessages wraps a prompt as the single user message of a chat.
func BuildMessages(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}

func buildFixMessages(raw string) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "user", Content: fmt.Sprintf("Fix this JSON. Output JSON only:\n%s", raw)},
	}
}

func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if idx := strings.IndexByte(trimmed, '\n'); idx != -1 {
		trimmed = trimmed[idx+1:]
	} else {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed), "```"))
}
