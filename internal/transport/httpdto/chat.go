package httpdto

type EnsureConversationRequest struct {
	PeerID string `json:"peer_id" binding:"required"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Text           string `json:"text" binding:"required"`
	IsStoryReply   bool   `json:"is_story_reply"`
	StoryID        string `json:"story_id"`
}

type EditMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type MarkSeenRequest struct {
	MessageIDs []string `json:"message_ids" binding:"required"`
}
