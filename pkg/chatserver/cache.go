package chatserver

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/paglaai/paglachat/pkg/apis/cache"
	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

const conversationsCacheDuration = 5 * time.Minute

// ConversationCache fronts the per-user conversation listing. It also acts as
// the orchestrator's change notifier: a new conversation or a generated title
// drops the user's cache entry so the sidebar sees fresh data on its next
// read. A nil backing cache disables caching entirely.
type ConversationCache struct {
	cache cache.Cache
}

func NewConversationCache(c cache.Cache) *ConversationCache {
	return &ConversationCache{cache: c}
}

func (c *ConversationCache) Get(userID string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}

	raw, err := c.cache.Get(cacheKey(userID))
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (c *ConversationCache) Put(userID string, conversations []chatv1.Conversation) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(conversations)
	if err != nil {
		log.WithError(err).Warning("could not encode conversation list for cache")
		return
	}

	if err := c.cache.Set(cacheKey(userID), raw, conversationsCacheDuration); err != nil {
		log.WithError(err).Warning("could not cache conversation list")
	}
}

// ConversationsChanged implements chat.Notifier.
func (c *ConversationCache) ConversationsChanged(userID string) {
	if c.cache == nil {
		return
	}

	if err := c.cache.Delete(cacheKey(userID)); err != nil {
		log.WithError(err).Warning("could not invalidate conversation list cache")
	}
}

func cacheKey(userID string) string {
	return "conversations~" + userID
}
