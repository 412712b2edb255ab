package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"reelchat/internal/domain/chat"
	"reelchat/internal/events"
	"reelchat/internal/live"
	"reelchat/internal/services"
	"reelchat/internal/transport/httpdto"
	"reelchat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// clientFrame is an inbound control frame from the browser.
type clientFrame struct {
	Action         string `json:"action"` // "subscribe" | "unsubscribe"
	ConversationID string `json:"conversation_id"`
}

// snapshotFrame carries the full ordered log of a subscribed conversation.
type snapshotFrame struct {
	Type           string         `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Messages       []chat.Message `json:"messages"`
}

// eventFrame carries user-scoped pushes (unread badge, notifications).
type eventFrame struct {
	Type  string       `json:"type"`
	Event events.Event `json:"event"`
}

type Handler struct {
	hub        *Hub
	feed       *live.Feed
	chats      *services.ChatService
	receipts   *services.ReceiptService
	authorizer *ChannelAuthorizer
	bus        events.Bus
	dwell      time.Duration
	log        *logger.Logger
}

func NewHandler(
	hub *Hub,
	feed *live.Feed,
	chats *services.ChatService,
	receipts *services.ReceiptService,
	authorizer *ChannelAuthorizer,
	bus events.Bus,
	dwell time.Duration,
	log *logger.Logger,
) *Handler {
	return &Handler{
		hub:        hub,
		feed:       feed,
		chats:      chats,
		receipts:   receipts,
		authorizer: authorizer,
		bus:        bus,
		dwell:      dwell,
		log:        log,
	}
}

// Connect upgrades the request and serves the socket until the peer hangs
// up. Each subscribe frame opens a live view whose snapshots stream to the
// client; the view also auto-marks messages seen after the dwell delay,
// since a subscribed conversation is an open one. User-scoped events are
// bridged from the bus for the whole session.
func (h *Handler) Connect(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	defer h.hub.Unregister(client)
	go client.WriteLoop(ctx)

	// Deferred after Unregister so it runs first: the user-channel handler
	// detaches before the hub tears the client down.
	unsubscribeUser := h.bus.Subscribe(events.UserChannel(userID), func(_ context.Context, e events.Event) {
		payload, err := json.Marshal(eventFrame{Type: "event", Event: e})
		if err != nil {
			return
		}
		client.SendMessage(payload)
	})
	defer unsubscribeUser()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Action {
		case "subscribe":
			h.subscribe(ctx, client, frame.ConversationID)
		case "unsubscribe":
			client.RemoveView(frame.ConversationID)
		}
	}
}

func (h *Handler) subscribe(ctx context.Context, client *Client, conversationID string) {
	if conversationID == "" {
		return
	}

	allowed, err := h.authorizer.CanSubscribe(ctx, client.UserID, conversationID)
	if err != nil {
		h.log.Warnf("authorize subscribe %s for %s: %v", conversationID, client.UserID, err)
		return
	}
	if !allowed {
		return
	}

	view := live.NewView(h.feed, h.chats, h.receipts, conversationID, client.UserID, h.dwell, h.log)
	view.SetOnUpdate(func(msgs []chat.Message) {
		payload, err := json.Marshal(snapshotFrame{
			Type:           "snapshot",
			ConversationID: conversationID,
			Messages:       msgs,
		})
		if err != nil {
			return
		}
		client.SendMessage(payload)
	})

	if err := view.Open(ctx); err != nil {
		h.log.Warnf("open view %s for %s: %v", conversationID, client.UserID, err)
		return
	}
	client.AddView(conversationID, view)
}
