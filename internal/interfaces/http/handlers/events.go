// internal/interfaces/http/handlers/events.go
package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/auth"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/cartsync"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// EventsHandler streams cart and authorization changes made by other tabs
type EventsHandler struct {
	stores    storage.Factory
	logger    *logrus.Logger
	keepAlive time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(stores storage.Factory, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		stores:    stores,
		logger:    logger,
		keepAlive: 25 * time.Second,
	}
}

// Stream handles GET /events as a server-sent event stream. It sends the current
// cart badge first, then a "cart" event for every cart write and an "auth" event
// for every login or logout made in another tab of the same origin.
func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	kv := h.stores.Open(middleware.GetOrigin(c), middleware.GetContextID(c))

	broadcaster := cartsync.New(kv, cart.NewStore(kv, h.logger), h.logger)
	if err := broadcaster.Start(ctx); err != nil {
		h.logger.WithError(err).Error("Failed to start cart sync")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Live updates unavailable",
		})
		return
	}
	defer broadcaster.Stop()

	updates, unsubscribe := broadcaster.Subscribe()
	defer unsubscribe()

	authChanges := make(chan bool, 1)
	gate := auth.NewGate(kv, nil, h.logger)
	watch, err := gate.Watch(ctx, func(authorized bool) {
		select {
		case <-authChanges:
		default:
		}
		authChanges <- authorized
	})
	if err != nil {
		h.logger.WithError(err).Warn("Failed to watch authorization changes")
	} else {
		defer watch.Close()
	}

	// the server write timeout would otherwise end the stream
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.WithError(err).Debug("Cannot lift write deadline for event stream")
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("cart", newAggregateResponse(broadcaster.Current()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case aggregate, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("cart", newAggregateResponse(aggregate))
			return true
		case authorized := <-authChanges:
			c.SSEvent("auth", gin.H{"authorized": authorized})
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
}
