package gateway

import (
	"context"
	"fmt"
	"sync"

	"paintbot/reply"
)

// responseChannel implements the bot's Channel against one HTTP exchange:
// sent segments accumulate in memory and become the response body, deleted
// messages are filtered out. Message ids are synthetic and request-scoped.
type responseChannel struct {
	mu       sync.Mutex
	nextID   int
	messages []responseMessage
}

type responseMessage struct {
	id       string
	segments []reply.Segment
	deleted  bool
}

func newResponseChannel() *responseChannel {
	return &responseChannel{}
}

func (c *responseChannel) Send(_ context.Context, _ string, segments []reply.Segment) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := fmt.Sprintf("m%d", c.nextID)
	c.messages = append(c.messages, responseMessage{id: id, segments: segments})
	return []string{id}, nil
}

func (c *responseChannel) DeleteMessage(_ context.Context, _, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].id == messageID {
			c.messages[i].deleted = true
			return nil
		}
	}
	return fmt.Errorf("gateway: no message %s", messageID)
}

// remaining returns the undeleted messages in send order.
func (c *responseChannel) remaining() []responseMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]responseMessage, 0, len(c.messages))
	for _, m := range c.messages {
		if !m.deleted {
			out = append(out, m)
		}
	}
	return out
}
