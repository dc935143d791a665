package model

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	ReferenceTypeStory  = "story"
	ReferenceTypePrompt = "prompt"
	ReferenceTypeTool   = "tool"
)

// LibraryReference identifies a library item cited by the assistant via an
// inline [LIBRARY_ITEM:type:id:title] marker.
type LibraryReference struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChatReply is the outcome of one chat turn.
type ChatReply struct {
	Response       string
	References     []LibraryReference
	LibraryContext string
}
