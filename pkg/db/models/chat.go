package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is one chat thread owned by a registered user. The title is
// initially a truncated prefix of the first prompt and is overwritten with a
// generated summary once the first turn completes.
type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// User who owns this conversation
	User string `json:"user" gorm:"not null;index"`

	Title string `json:"title" gorm:"not null"`
}

// Message is a single user prompt or model reply. Messages reference their
// conversation by id rather than living under it, so reads filter on
// conversation_id and order by created_at ascending.
type Message struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`

	User           string    `json:"user" gorm:"not null;index"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`

	// Role is "user" or "model"
	Role    string `json:"role" gorm:"not null"`
	Content string `json:"content" gorm:"not null"`
}
