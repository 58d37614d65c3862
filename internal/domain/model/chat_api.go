package model

// ChatRequest is the body of the agent-loop stream open request.
type ChatRequest struct {
	Message             string  `json:"message"`
	SessionID           string  `json:"session_id,omitempty"`
	ProjectID           string  `json:"project_id"`
	PromptID            int     `json:"prompt_id,omitempty"`
	KnowledgeBaseID     string  `json:"knowledge_base_id,omitempty"`
	UseKnowledgeBase    *bool   `json:"use_knowledge_base,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	TopK                int     `json:"top_k,omitempty"`
	Image               string  `json:"image,omitempty"` // base64, no data: prefix
}

// ChatHistoryMessage is one persisted transcript entry as the server
// returns it.
type ChatHistoryMessage struct {
	Type              string `json:"type"` // human | ai | tool | system
	Content           string `json:"content"`
	Timestamp         string `json:"timestamp"`
	Image             string `json:"image,omitempty"`
	IsThinkingProcess bool   `json:"is_thinking_process,omitempty"`
}

// ChatHistory is the server-side transcript of one session.
type ChatHistory struct {
	ThreadID    string               `json:"thread_id"`
	SessionID   string               `json:"session_id"`
	ProjectID   string               `json:"project_id"`
	ProjectName string               `json:"project_name"`
	History     []ChatHistoryMessage `json:"history"`
}

// SessionList enumerates a user's session ids within a project.
type SessionList struct {
	UserID   string   `json:"user_id"`
	Sessions []string `json:"sessions"`
}

// BatchDeleteResult reports the outcome of a batch history deletion.
type BatchDeleteResult struct {
	DeletedCount      int   `json:"deleted_count"`
	ProcessedSessions int   `json:"processed_sessions"`
	FailedSessions    []any `json:"failed_sessions"`
}
