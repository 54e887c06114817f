// Package localstore is the guest tier's conversation store: two JSON blobs
// on local disk, one holding every conversation's ordered message array and
// one holding the conversation index. It is the moral equivalent of browser
// local storage — single writer, client-synthesized ids and times,
// last-write-wins if two processes share a directory (an accepted data-loss
// risk for the guest tier).
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
	"github.com/paglaai/paglachat/pkg/chat"
)

const (
	// Topic carries a conversation id whenever any blob is written.
	// Subscribers re-read the store rather than applying deltas.
	Topic = "conversations"

	messagesFile = "messages.json"
	indexFile    = "index.json"

	guestMessagePrefix      = "guest-msg-"
	guestConversationPrefix = "guest-chat-"
)

type Store struct {
	dir    string
	mu     sync.Mutex
	pubsub *gochannel.GoChannel
	now    func() time.Time
}

var _ chat.ConversationStore = (*Store)(nil)

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "could not create local store directory")
	}

	return &Store{
		dir:    dir,
		pubsub: gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}),
		now:    time.Now,
	}, nil
}

// SetClock overrides the time source. Guest ids are derived from it, so tests
// that need deterministic ids set a fixed clock.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Subscribe returns a channel of change notifications. Every write publishes
// one message whose payload is the affected conversation id.
func (s *Store) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return s.pubsub.Subscribe(ctx, Topic)
}

func (s *Store) Close() error {
	return s.pubsub.Close()
}

func (s *Store) CreateConversation(_ context.Context, userID, title string) (string, error) {
	id := fmt.Sprintf("%s%d", guestConversationPrefix, s.now().UnixMilli())
	return id, s.EnsureConversation(id, title, userID)
}

// EnsureConversation records a conversation in the index if it is not already
// there. Callers that received a synthesized id from elsewhere (the send
// endpoint) use this to register it locally with the title they chose at
// creation time.
func (s *Store) EnsureConversation(conversationID, title, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return err
	}

	for _, conversation := range index {
		if conversation.ID == conversationID {
			return nil
		}
	}

	// Newest first, matching the remote tier's listing order.
	index = append([]chatv1.Conversation{{
		ID:        conversationID,
		Title:     title,
		CreatedAt: s.now(),
		UserID:    userID,
	}}, index...)

	if err := s.writeIndex(index); err != nil {
		return err
	}

	s.publish(conversationID)
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, _ string, conversationID string, role chatv1.Role, content string) (chatv1.Message, error) {
	msg := chatv1.Message{
		ID:        NewMessageID(s.now()),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}

	return msg, s.PutMessages(conversationID, msg)
}

// PutMessages appends messages to a conversation's blob as given, preserving
// ids and timestamps already assigned by the caller.
func (s *Store) PutMessages(conversationID string, msgs ...chatv1.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.readMessages()
	if err != nil {
		return err
	}

	blobs[conversationID] = append(blobs[conversationID], msgs...)

	if err := s.writeMessages(blobs); err != nil {
		return err
	}

	s.publish(conversationID)
	return nil
}

func (s *Store) ListMessages(_ context.Context, _, conversationID string) ([]chatv1.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.readMessages()
	if err != nil {
		return nil, err
	}

	messages := append([]chatv1.Message{}, blobs[conversationID]...)
	chatv1.SortMessages(messages)
	return messages, nil
}

func (s *Store) UpdateTitle(_ context.Context, conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].ID == conversationID {
			index[i].Title = title
			if err := s.writeIndex(index); err != nil {
				return err
			}
			s.publish(conversationID)
			return nil
		}
	}

	return errors.Errorf("conversation %s not found", conversationID)
}

func (s *Store) ListConversations(_ context.Context, _ string) ([]chatv1.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	return append([]chatv1.Conversation{}, index...), nil
}

// NewMessageID synthesizes a guest message id from the clock, the same scheme
// the send endpoint uses for guest replies.
func NewMessageID(t time.Time) string {
	return fmt.Sprintf("%s%d", guestMessagePrefix, t.UnixMilli())
}

func (s *Store) publish(conversationID string) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(conversationID))
	if err := s.pubsub.Publish(Topic, msg); err != nil {
		log.WithError(err).Warning("could not publish local store change")
	}
}

func (s *Store) readMessages() (map[string][]chatv1.Message, error) {
	blobs := map[string][]chatv1.Message{}
	if err := s.readBlob(messagesFile, &blobs); err != nil {
		return nil, err
	}
	return blobs, nil
}

func (s *Store) writeMessages(blobs map[string][]chatv1.Message) error {
	return s.writeBlob(messagesFile, blobs)
}

func (s *Store) readIndex() ([]chatv1.Conversation, error) {
	var index []chatv1.Conversation
	if err := s.readBlob(indexFile, &index); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *Store) writeIndex(index []chatv1.Conversation) error {
	return s.writeBlob(indexFile, index)
}

// Blobs are read and written whole; there is no per-key access.

func (s *Store) readBlob(name string, out interface{}) error {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not read %s", name)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "could not parse %s", name)
	}
	return nil
}

func (s *Store) writeBlob(name string, in interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "could not encode %s", name)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o600); err != nil {
		return errors.Wrapf(err, "could not write %s", name)
	}
	return nil
}
