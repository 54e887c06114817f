package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

const (
	// titlePrefixLength is how many runes of the first prompt seed a new
	// conversation's title before the generated summary replaces it.
	titlePrefixLength = 30

	guestMessagePrefix      = "guest-msg-"
	guestConversationPrefix = "guest-chat-"
)

// Completer generates replies and titles. Provider failures propagate as
// errors; the orchestrator classifies them, applying the quota/generic split
// uniformly to both operations.
type Completer interface {
	Complete(ctx context.Context, history []chatv1.Message, prompt string) (string, error)
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Notifier receives a signal whenever an actor's conversation list changes
// (new conversation, new title). It is a signal only; the mechanism behind it
// (cache invalidation, UI refresh) belongs to the caller.
type Notifier interface {
	ConversationsChanged(userID string)
}

// TurnRequest is one submitted prompt. ConversationID is empty for the first
// turn of a new thread. GuestHistory is only consulted in guest mode, where
// the caller owns persistence.
type TurnRequest struct {
	Prompt         string
	ConversationID string
	UserID         string
	Guest          bool
	GuestHistory   []chatv1.Message
}

// TurnResult is the completed turn: the AI reply plus the conversation it
// belongs to, which may have been created by this turn.
type TurnResult struct {
	AIMessage       chatv1.Message
	ConversationID  string
	NewConversation bool
}

// Orchestrator executes chat turns end to end: persist the user message,
// build history, call the model, persist the reply, and on the first turn of
// a conversation generate its title. It does not serialize concurrent turns
// against the same conversation; callers are expected to submit one turn at a
// time per thread.
type Orchestrator struct {
	store      ConversationStore
	completer  Completer
	notifier   Notifier
	isQuotaErr func(error) bool
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithNotifier registers a conversation-list change listener.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithQuotaCheck sets the predicate that recognizes the provider's rate-limit
// signal in an error chain.
func WithQuotaCheck(fn func(error) bool) Option {
	return func(o *Orchestrator) {
		o.isQuotaErr = fn
	}
}

// WithClock overrides the time source used for guest-synthesized ids and
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(store ConversationStore, completer Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		completer: completer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SendTurn runs one full turn. It returns either a result or exactly one
// error from the taxonomy in errors.go, never both. A user message persisted
// before a later failure stays persisted; there is no rollback path.
func (o *Orchestrator) SendTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	if req.UserID == "" {
		return nil, ErrAuthRequired
	}

	if req.Guest {
		return o.guestTurn(ctx, req)
	}

	return o.registeredTurn(ctx, req)
}

// guestTurn never touches the remote store. History comes in with the
// request, ids and times are synthesized here, and the caller is responsible
// for writing the appended pair back to its local store.
func (o *Orchestrator) guestTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	now := o.now()

	userMessage := chatv1.Message{
		Role:      chatv1.RoleUser,
		Content:   req.Prompt,
		Timestamp: now,
	}
	history := append(append([]chatv1.Message{}, req.GuestHistory...), userMessage)

	reply, err := o.completer.Complete(ctx, history, req.Prompt)
	if err != nil {
		return nil, o.classify(err, "guest completion failed")
	}

	conversationID := req.ConversationID
	created := conversationID == ""
	if created {
		conversationID = fmt.Sprintf("%s%d", guestConversationPrefix, now.UnixMilli())
	}

	return &TurnResult{
		AIMessage: chatv1.Message{
			ID:        fmt.Sprintf("%s%d", guestMessagePrefix, o.now().UnixMilli()),
			Role:      chatv1.RoleModel,
			Content:   reply,
			Timestamp: o.now(),
		},
		ConversationID:  conversationID,
		NewConversation: created,
	}, nil
}

func (o *Orchestrator) registeredTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	conversationID := req.ConversationID
	created := conversationID == ""

	if created {
		id, err := o.store.CreateConversation(ctx, req.UserID, TruncateTitle(req.Prompt))
		if err != nil {
			return nil, o.classify(err, "could not create conversation")
		}
		conversationID = id
	}

	if _, err := o.store.AppendMessage(ctx, req.UserID, conversationID, chatv1.RoleUser, req.Prompt); err != nil {
		return nil, o.classify(err, "could not persist user message")
	}

	history, err := o.store.ListMessages(ctx, req.UserID, conversationID)
	if err != nil {
		return nil, o.classify(err, "could not read conversation history")
	}

	reply, err := o.completer.Complete(ctx, history, req.Prompt)
	if err != nil {
		return nil, o.classify(err, "completion failed")
	}

	aiMessage, err := o.store.AppendMessage(ctx, req.UserID, conversationID, chatv1.RoleModel, reply)
	if err != nil {
		return nil, o.classify(err, "could not persist AI message")
	}

	if created {
		o.generateTitle(ctx, req.UserID, conversationID, history, reply)
		if o.notifier != nil {
			o.notifier.ConversationsChanged(req.UserID)
		}
	}

	return &TurnResult{
		AIMessage:       aiMessage,
		ConversationID:  conversationID,
		NewConversation: created,
	}, nil
}

// generateTitle summarizes the first completed turn into a short title. A
// failure here does not fail the turn: the conversation keeps its truncated
// prefix title and the error goes to the logs.
func (o *Orchestrator) generateTitle(ctx context.Context, userID, conversationID string, history []chatv1.Message, reply string) {
	transcript := FlattenTranscript(history) + "\nmodel: " + reply

	summary, err := o.completer.Summarize(ctx, transcript)
	if err != nil {
		log.WithError(err).WithField("conversationID", conversationID).Warning("could not summarize conversation title")
		return
	}

	if err := o.store.UpdateTitle(ctx, conversationID, summary); err != nil {
		log.WithError(err).WithField("conversationID", conversationID).Warning("could not update conversation title")
		return
	}

	log.WithFields(log.Fields{
		"user":           userID,
		"conversationID": conversationID,
	}).Debug("conversation title generated")
}

// classify translates an internal failure into the user-facing taxonomy. The
// quota signal gets its own error; everything else is logged in full and
// surfaced generically.
func (o *Orchestrator) classify(err error, msg string) error {
	if o.isQuotaErr != nil && o.isQuotaErr(err) {
		log.WithError(err).Warning(msg + ": provider quota exceeded")
		return ErrQuotaExceeded
	}

	log.WithError(err).Error(msg)
	return ErrUnexpected
}

// TruncateTitle derives the initial title of a new conversation from its
// first prompt.
func TruncateTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= titlePrefixLength {
		return prompt
	}
	return string(runes[:titlePrefixLength])
}

// FlattenTranscript renders an ordered history as "role: content" lines, the
// form fed to the title summarizer.
func FlattenTranscript(history []chatv1.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}
