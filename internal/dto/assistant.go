package dto

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest carries the user's message plus prior conversation turns.
type ChatRequest struct {
	Message string        `json:"message" validate:"required,min=1,max=4000"`
	History []ChatMessage `json:"history" validate:"max=50,dive"`
}

// ChatResponse is the assistant's reply. When the reply is a schedule command
// batch the handler plans it and returns the plan alongside the raw reply.
type ChatResponse struct {
	Reply    string `json:"reply"`
	KeyIndex int    `json:"key_index"`
	PlanID   string `json:"plan_id,omitempty"`
}

// PlanCommandsRequest submits a raw assistant response for command planning.
type PlanCommandsRequest struct {
	Response string `json:"response" validate:"required"`
}
