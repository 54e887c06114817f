package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
	"github.com/paglaai/paglachat/pkg/db"
	"github.com/paglaai/paglachat/pkg/db/models"
)

// PGStore is the postgres-backed ConversationStore for registered users.
// Every write is an independent atomic insert; no transaction spans the user
// message and the AI reply, so a reader between the two sees a partial turn.
type PGStore struct {
	dbc *db.DB
}

func NewPGStore(dbc *db.DB) *PGStore {
	return &PGStore{dbc: dbc}
}

var _ ConversationStore = (*PGStore)(nil)

func (s *PGStore) CreateConversation(ctx context.Context, userID, title string) (string, error) {
	conversation := models.Conversation{
		User:  userID,
		Title: title,
	}

	if err := s.dbc.DB.WithContext(ctx).Create(&conversation).Error; err != nil {
		return "", errors.Wrap(err, "could not create conversation")
	}

	return conversation.ID.String(), nil
}

func (s *PGStore) AppendMessage(ctx context.Context, userID, conversationID string, role chatv1.Role, content string) (chatv1.Message, error) {
	convID, err := uuid.Parse(conversationID)
	if err != nil {
		return chatv1.Message{}, errors.Wrap(err, "invalid conversation id")
	}

	message := models.Message{
		User:           userID,
		ConversationID: convID,
		Role:           string(role),
		Content:        content,
	}

	if err := s.dbc.DB.WithContext(ctx).Create(&message).Error; err != nil {
		return chatv1.Message{}, errors.Wrap(err, "could not append message")
	}

	return chatv1.Message{
		ID:        message.ID.String(),
		Role:      role,
		Content:   content,
		Timestamp: message.CreatedAt,
	}, nil
}

func (s *PGStore) ListMessages(ctx context.Context, userID, conversationID string) ([]chatv1.Message, error) {
	convID, err := uuid.Parse(conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid conversation id")
	}

	var rows []models.Message
	res := s.dbc.DB.WithContext(ctx).
		Where("\"user\" = ? AND conversation_id = ?", userID, convID).
		Order("created_at ASC").
		Find(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "could not list messages")
	}

	messages := make([]chatv1.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, chatv1.Message{
			ID:        row.ID.String(),
			Role:      chatv1.Role(row.Role),
			Content:   row.Content,
			Timestamp: row.CreatedAt,
		})
	}

	return messages, nil
}

func (s *PGStore) UpdateTitle(ctx context.Context, conversationID, title string) error {
	convID, err := uuid.Parse(conversationID)
	if err != nil {
		return errors.Wrap(err, "invalid conversation id")
	}

	res := s.dbc.DB.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", convID).
		Update("title", title)
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not update conversation title")
	}

	return nil
}

func (s *PGStore) ListConversations(ctx context.Context, userID string) ([]chatv1.Conversation, error) {
	var rows []models.Conversation
	res := s.dbc.DB.WithContext(ctx).
		Where("\"user\" = ?", userID).
		Order("created_at DESC").
		Find(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "could not list conversations")
	}

	conversations := make([]chatv1.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, chatv1.Conversation{
			ID:        row.ID.String(),
			Title:     row.Title,
			CreatedAt: row.CreatedAt,
			UserID:    row.User,
		})
	}

	return conversations, nil
}
