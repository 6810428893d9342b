package models

// Category is a kind of round content with its own chars-per-token ratio.
type Category string

const (
	CategoryUserMessage   Category = "user_message"
	CategoryUserDocuments Category = "user_documents"
	CategoryThinking      Category = "thinking"
	CategoryAssistant     Category = "assistant"
	CategoryToolContent   Category = "tool_content"
)

// Categories lists every content category in display order.
var Categories = []Category{
	CategoryUserMessage,
	CategoryUserDocuments,
	CategoryThinking,
	CategoryAssistant,
	CategoryToolContent,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
