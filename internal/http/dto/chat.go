package dto

import "storyshelf.app/assistant/internal/model"

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required"`
}

type LibraryReference struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ChatResponse struct {
	Response   string             `json:"response"`
	References []LibraryReference `json:"references"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (r ChatRequest) ToModel() []model.ChatMessage {
	messages := make([]model.ChatMessage, len(r.Messages))
	for i, m := range r.Messages {
		messages[i] = model.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return messages
}

func ToChatResponse(reply *model.ChatReply) ChatResponse {
	refs := make([]LibraryReference, len(reply.References))
	for i, r := range reply.References {
		refs[i] = LibraryReference{Type: r.Type, ID: r.ID, Title: r.Title}
	}
	return ChatResponse{
		Response:   reply.Response,
		References: refs,
	}
}
