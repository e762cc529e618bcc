package handlers

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"reflection-garden/events"
	"reflection-garden/metrics"
	"reflection-garden/middleware"
)

// heartbeatInterval keeps idle proxies from closing the stream and surfaces
// disconnects through a failed flush.
var heartbeatInterval = 15 * time.Second

// TopicAuthorizer decides which topics a user may listen on.
type TopicAuthorizer interface {
	CanJoinTopic(ctx context.Context, actorID, topic string) (bool, error)
}

// WriteFrame writes one SSE frame.
func WriteFrame(w *bufio.Writer, f events.Frame) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Name, f.Data); err != nil {
		return err
	}
	return w.Flush()
}

func queryList(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, v := range strings.Split(string(raw), ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// SetupStreamRoutes mounts GET /stream. The caller always hears its own user
// topic; group_id and reflection_id add topics it is allowed to see.
func SetupStreamRoutes(r fiber.Router, hub *events.Hub, auth TopicAuthorizer, m metrics.Recorder) {
	r.Get("/stream", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		ctx := c.UserContext()

		topics := []string{events.UserTopic(userID)}
		requested := make([]string, 0)
		for _, id := range queryList(c, "group_id") {
			requested = append(requested, events.GroupTopic(id))
		}
		for _, id := range queryList(c, "reflection_id") {
			requested = append(requested, events.ReflectionTopic(id))
		}
		for _, t := range requested {
			ok, err := auth.CanJoinTopic(ctx, userID, t)
			if err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error":     "could not authorize stream",
					"cause":     err.Error(),
					"retryable": true,
				})
			}
			if !ok {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "topic not visible to this user",
					"cause": t,
				})
			}
			topics = append(topics, t)
		}

		sub, err := hub.Subscribe(topics...)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "stream unavailable",
				"cause": err.Error(),
			})
		}
		m.StreamOpened()
		log.Printf("📡 [Stream] %s subscribed to %v", userID, sub.Topics())

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer func() {
				sub.Close()
				m.StreamClosed()
				log.Printf("📴 [Stream] %s disconnected", userID)
			}()

			ticker := time.NewTicker(heartbeatInterval)
			defer ticker.Stop()

			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case f, ok := <-sub.C():
					if !ok {
						return
					}
					if err := WriteFrame(w, f); err != nil {
						return
					}
				case <-ticker.C:
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		})
		return nil
	})
}
