package infrastructure

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
)

// waiterKey identifies one pending reply wait.
type waiterKey struct {
	channelID snowflake.ID
	userID    snowflake.ID
}

type waiter struct {
	accept func(string) bool
	reply  chan string
}

// MessageCollector routes plain channel messages to pending waiters,
// implementing the reply collection used for interactive
// disambiguation. One waiter per channel/user pair; a second wait on
// the same pair replaces the first.
type MessageCollector struct {
	mu      sync.Mutex
	waiters map[waiterKey]*waiter
}

// NewMessageCollector creates a MessageCollector.
func NewMessageCollector() *MessageCollector {
	return &MessageCollector{
		waiters: make(map[waiterKey]*waiter),
	}
}

// AwaitReply blocks until the user posts an accepted message in the
// channel or ctx is done.
func (c *MessageCollector) AwaitReply(
	ctx context.Context,
	channelID, userID snowflake.ID,
	accept func(content string) bool,
) (string, error) {
	key := waiterKey{channelID: channelID, userID: userID}
	w := &waiter{
		accept: accept,
		reply:  make(chan string, 1),
	}

	c.mu.Lock()
	c.waiters[key] = w
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.waiters[key] == w {
			delete(c.waiters, key)
		}
		c.mu.Unlock()
	}()

	select {
	case reply := <-w.reply:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// HandleMessageCreate feeds an incoming message to the matching waiter,
// if any. Must be wired to the Discord event handler.
func (c *MessageCollector) HandleMessageCreate(
	_ *discordgo.Session,
	event *discordgo.MessageCreate,
) {
	if event.Author == nil || event.Author.Bot {
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		return
	}
	userID, err := snowflake.Parse(event.Author.ID)
	if err != nil {
		return
	}

	key := waiterKey{channelID: channelID, userID: userID}

	c.mu.Lock()
	w := c.waiters[key]
	if w != nil && w.accept(event.Content) {
		delete(c.waiters, key)
	} else {
		w = nil
	}
	c.mu.Unlock()

	if w != nil {
		w.reply <- event.Content
	}
}

// Ensure MessageCollector implements ports.ReplyCollector.
var _ ports.ReplyCollector = (*MessageCollector)(nil)
