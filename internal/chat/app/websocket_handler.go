package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// wsSession one live connection. The write mutex serializes pushes from the
// pub/sub goroutines with command replies.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send push an event to the client
func (s *wsSession) Send(event domain.Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

func (s *wsSession) sendResponse(resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

// wsConn per-connection state threaded through the action handlers
type wsConn struct {
	session *wsSession
	userID  string
	// roomCancel tears down the previous chat subscription when the client
	// joins another chat
	roomCancel context.CancelFunc
}

type wsHandlerFunc func(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse)

// ChatWebsocketHandler the websocket entry point. Incoming actions are
// routed through a dispatch table instead of one switch.
type ChatWebsocketHandler struct {
	presence    *PresenceRegistry
	messageUC   *MessageUseCase
	dedup       *DedupFilter
	broadcaster repository.Broadcaster
	subscriber  repository.Subscriber

	handlers map[domain.Action]wsHandlerFunc
}

// NewChatWebsocketHandler create a ChatWebsocketHandler
func NewChatWebsocketHandler(
	presence *PresenceRegistry,
	messageUC *MessageUseCase,
	dedup *DedupFilter,
	broadcaster repository.Broadcaster,
	subscriber repository.Subscriber,
) *ChatWebsocketHandler {
	h := &ChatWebsocketHandler{
		presence:    presence,
		messageUC:   messageUC,
		dedup:       dedup,
		broadcaster: broadcaster,
		subscriber:  subscriber,
	}
	h.handlers = map[domain.Action]wsHandlerFunc{
		domain.ActionSetup:         h.handleSetup,
		domain.ActionJoinChat:      h.handleJoinChat,
		domain.ActionNewMessage:    h.handleNewMessage,
		domain.ActionTyping:        h.handleTyping,
		domain.ActionStopTyping:    h.handleStopTyping,
		domain.ActionMarkDelivered: h.handleMarkDelivered,
		domain.ActionMarkRead:      h.handleMarkRead,
	}
	return h
}

// HandleConnection run one connection until it closes
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, ok := conn.Locals(middlewares.TokenUserID).(string)
	if !ok || userID == "" {
		conn.Close()
		return
	}
	logger.Log.Info("websocket connected", zap.String("userID", userID))

	session := &wsSession{conn: conn}
	c := &wsConn{session: session, userID: userID}

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.String("userID", userID))
		h.presence.Unregister(userID, session)
		if c.roomCancel != nil {
			c.roomCancel()
		}
		cancel()
		conn.Close()
	}()

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// the user's own channel carries mentions and group membership pushes
	h.subscriber.Subscribe(ctxClose, repository.UserChannel(userID), func(event domain.Event) {
		if err := session.Send(event); err != nil {
			logger.Log.Errorf("event push error:", err)
		}
	})
	h.subscriber.Subscribe(ctxClose, repository.PresenceChannel, func(event domain.Event) {
		if err := session.Send(event); err != nil {
			logger.Log.Errorf("event push error:", err)
		}
	})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping message")); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.dispatch(ctx, c, message)
	}
}

// dispatch decode one request and route it through the handler table
func (h *ChatWebsocketHandler) dispatch(ctx context.Context, c *wsConn, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	handler, ok := h.handlers[domain.Action(req.Action)]
	if !ok {
		resp.Error = "unknown action"
		c.session.sendResponse(resp)
		return
	}
	handler(ctx, c, req, &resp)

	if resp.Error != "" {
		logger.Log.Error("websocket action failed",
			zap.String("userID", c.userID),
			zap.String("action", req.Action),
			zap.String("err", resp.Error))
	}
	c.session.sendResponse(resp)
}

// handleSetup register presence for this connection. A reconnect silently
// replaces the previous session.
func (h *ChatWebsocketHandler) handleSetup(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse) {
	h.presence.Register(ctx, c.userID, c.session)
	resp.Success = true
	resp.Payload["online_users"] = h.presence.OnlineUsers()
}

// handleJoinChat subscribe to the chat's channel and mark its backlog read
func (h *ChatWebsocketHandler) handleJoinChat(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse) {
	if req.ChatID == "" {
		resp.Error = domain.ErrMissingField.Error()
		return
	}
	if err := h.messageUC.BackfillRead(ctx, req.ChatID, c.userID); err != nil {
		resp.Error = err.Error()
		return
	}

	if c.roomCancel != nil {
		c.roomCancel()
	}
	ctxRoom, cancel := context.WithCancel(context.Background())
	c.roomCancel = cancel
	h.subscriber.Subscribe(ctxRoom, repository.ChatChannel(req.ChatID), func(event domain.Event) {
		if err := c.session.Send(event); err != nil {
			logger.Log.Errorf("event push error:", err)
		}
	})

	resp.Success = true
	resp.Payload["chat_id"] = req.ChatID
}

// handleNewMessage relay a just-created message to the chat room, then mark
// it delivered for every member already online. Several recipients may relay
// the same message; the dedup filter keeps the fan-out to one.
func (h *ChatWebsocketHandler) handleNewMessage(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse) {
	if req.ChatID == "" || req.MessageID == "" {
		resp.Error = domain.ErrMissingField.Error()
		return
	}
	if !h.dedup.ShouldProcess(req.MessageID) {
		resp.Success = true
		resp.Payload["duplicate"] = true
		return
	}

	event := domain.Event{Name: domain.EventNewMessage, Payload: req.Message}
	if err := h.broadcaster.PublishToChat(req.ChatID, event); err != nil {
		resp.Error = err.Error()
		return
	}
	h.messageUC.DeliverToOnline(ctx, req.MessageID, h.presence.IsOnline)
	resp.Success = true
}

// handleTyping relay a typing notice to the chat room
func (h *ChatWebsocketHandler) handleTyping(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse) {
	h.relayTyping(c, req, domain.EventUserTyping, resp)
}

// handleStopTyping relay a stopped-typing notice to the chat room
func (h *ChatWebsocketHandler) handleStopTyping(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse) {
	h.relayTyping(c, req, domain.EventUserStoppedTyping, resp)
}

func (h *ChatWebsocketHandler) relayTyping(c *wsConn, req domain.WSRequest, eventName string, resp *domain.WSResponse) {
	if req.ChatID == "" {
		resp.Error = domain.ErrMissingField.Error()
		return
	}
	event := domain.Event{
		Name:    eventName,
		Payload: domain.TypingNotice{ChatID: req.ChatID, UserID: c.userID},
	}
	if err := h.broadcaster.PublishToChat(req.ChatID, event); err != nil {
		resp.Error = err.Error()
		return
	}
	resp.Success = true
}

// handleMarkDelivered low-latency delivery receipt over the socket
func (h *ChatWebsocketHandler) handleMarkDelivered(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse) {
	if req.MessageID == "" {
		resp.Error = domain.ErrMissingField.Error()
		return
	}
	status, err := h.messageUC.MarkDelivered(ctx, req.MessageID, c.userID)
	if err != nil {
		resp.Error = err.Error()
		return
	}
	resp.Success = true
	resp.Payload["status"] = status
}

// handleMarkRead low-latency read receipt over the socket
func (h *ChatWebsocketHandler) handleMarkRead(ctx context.Context, c *wsConn, req domain.WSRequest, resp *domain.WSResponse) {
	if req.MessageID == "" {
		resp.Error = domain.ErrMissingField.Error()
		return
	}
	status, err := h.messageUC.MarkRead(ctx, req.MessageID, c.userID)
	if err != nil {
		resp.Error = err.Error()
		return
	}
	resp.Success = true
	resp.Payload["status"] = status
}
