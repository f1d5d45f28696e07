package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/givehub/givehub-api/internal/api/handler/v1/request"
	"github.com/givehub/givehub-api/internal/api/handler/v1/response"
	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production!
	},
}

type ChatService interface {
	OpenChat(ctx context.Context, actor domain.User, counterpartID uint) (domain.Chat, error)
	GetChat(ctx context.Context, chatID uint, actor domain.User) (domain.Chat, error)
	GetChats(ctx context.Context, actor domain.User) ([]domain.Chat, error)
	ListMessages(ctx context.Context, chatID uint, actor domain.User, limit, offset int) ([]domain.Message, error)
	SendMessage(ctx context.Context, chatID uint, actor domain.User, text, clientMsgID string) (domain.Message, error)
	SendProposal(ctx context.Context, chatID uint, actor domain.User, items []domain.ProposalItem, clientMsgID string) (domain.Message, error)
	AcceptProposal(ctx context.Context, chatID, messageID uint, actor domain.User) (domain.TransactionProposal, error)
	RejectProposal(ctx context.Context, chatID, messageID uint, actor domain.User) (domain.TransactionProposal, error)
}

// Client is one open websocket connection, bound to a single chat room.
// The send channel is closed exactly once, via closeSend; every write to it
// goes through trySend so a slow or evicted client can never panic a writer.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	user   domain.User
	chatID uint

	mu     sync.Mutex
	closed bool
}

// trySend queues payload for the client without blocking. It reports false
// when the client is gone or its buffer is full.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type ChatHandler struct {
	svc          ChatService
	uSvc         UserService
	rooms        map[uint]map[*Client]bool
	clientsMutex sync.RWMutex
	broadcast    chan roomMessage
	register     chan *Client
	unregister   chan *Client
}

type roomMessage struct {
	chatID  uint
	payload []byte
}

func NewChatHandler(svc ChatService, uSvc UserService) *ChatHandler {
	return &ChatHandler{
		svc:        svc,
		uSvc:       uSvc,
		rooms:      make(map[uint]map[*Client]bool),
		broadcast:  make(chan roomMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the room registry. It must be started once, before the first
// websocket upgrade.
func (h *ChatHandler) Run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			if h.rooms[client.chatID] == nil {
				h.rooms[client.chatID] = make(map[*Client]bool)
			}
			h.rooms[client.chatID][client] = true
			h.clientsMutex.Unlock()
		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if room, ok := h.rooms[client.chatID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					client.closeSend()
					if len(room) == 0 {
						delete(h.rooms, client.chatID)
					}
				}
			}
			h.clientsMutex.Unlock()
		case message := <-h.broadcast:
			h.clientsMutex.Lock()
			for client := range h.rooms[message.chatID] {
				if !client.trySend(message.payload) {
					client.closeSend()
					delete(h.rooms[message.chatID], client)
				}
			}
			h.clientsMutex.Unlock()
		}
	}
}

// HandleOpenChat godoc
// @Summary      Open a chat with a counterpart
// @Description  Vendors create the chat with an organization on first contact; organizations can only open a chat a vendor already started.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        input  body      request.OpenChatRequest  true  "Counterpart"
// @Success      200    {object}  domain.Chat
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /chats [post]
// @Security BearerAuth
func (h *ChatHandler) HandleOpenChat(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.OpenChatRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	chat, err := h.svc.OpenChat(ctx.Request.Context(), user, input.CounterpartID)
	if err != nil {
		renderChatErr(ctx, fmt.Errorf("v1.HandleOpenChat -> h.svc.OpenChat -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, chat)
}

// HandleGetChats godoc
// @Summary      List my chats
// @Tags         chats
// @Produce      json
// @Success      200  {array}   domain.Chat
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /chats [get]
// @Security BearerAuth
func (h *ChatHandler) HandleGetChats(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	chats, err := h.svc.GetChats(ctx.Request.Context(), user)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetChats -> h.svc.GetChats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, chats)
}

// HandleGetChat godoc
// @Summary      Get a chat by ID
// @Tags         chats
// @Produce      json
// @Param        chatID  path      int true "Chat ID"
// @Success      200  {object}  domain.Chat
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /chats/{chatID} [get]
// @Security BearerAuth
func (h *ChatHandler) HandleGetChat(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	chatID, err := strconv.ParseUint(ctx.Param("chatID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid chat ID: %w", err)))
		return
	}

	chat, err := h.svc.GetChat(ctx.Request.Context(), uint(chatID), user)
	if err != nil {
		renderChatErr(ctx, fmt.Errorf("v1.HandleGetChat -> h.svc.GetChat -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, chat)
}

// HandleGetChatMessages godoc
// @Summary      Get chat messages
// @Description  Retrieves the chat's messages in append order, proposals included.
// @Tags         chats
// @Produce      json
// @Param        chatID  path   int true  "Chat ID"
// @Param        limit   query  int false "Number of messages to retrieve (default 50)"
// @Param        offset  query  int false "Offset for pagination (default 0)"
// @Success      200  {array}   domain.Message
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /chats/{chatID}/messages [get]
// @Security BearerAuth
func (h *ChatHandler) HandleGetChatMessages(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	chatID, err := strconv.ParseUint(ctx.Param("chatID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid chat ID: %w", err)))
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	messages, err := h.svc.ListMessages(ctx.Request.Context(), uint(chatID), user, limit, offset)
	if err != nil {
		renderChatErr(ctx, fmt.Errorf("v1.HandleGetChatMessages -> h.svc.ListMessages -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// HandleSendMessage godoc
// @Summary      Send a chat message
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        chatID  path      int true  "Chat ID"
// @Param        input   body      request.SendMessageRequest  true  "Message"
// @Success      201     {object}  domain.Message
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /chats/{chatID}/messages [post]
// @Security BearerAuth
func (h *ChatHandler) HandleSendMessage(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	chatID, err := strconv.ParseUint(ctx.Param("chatID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid chat ID: %w", err)))
		return
	}

	var input request.SendMessageRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	message, err := h.svc.SendMessage(ctx.Request.Context(), uint(chatID), user, input.Text, input.ClientMsgID)
	if err != nil {
		renderChatErr(ctx, fmt.Errorf("v1.HandleSendMessage -> h.svc.SendMessage -> %w", err))
		return
	}

	h.broadcastEvent(message.ChatID, "message", message)

	ctx.JSON(http.StatusCreated, message)
}

// HandleSendProposal godoc
// @Summary      Send a transaction proposal
// @Description  Appends a pending transaction proposal to the chat. The total is computed server-side from the line items.
// @Tags         chats,proposals
// @Accept       json
// @Produce      json
// @Param        chatID  path      int true  "Chat ID"
// @Param        input   body      request.SendProposalRequest  true  "Proposal line items"
// @Success      201     {object}  domain.Message
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /chats/{chatID}/proposals [post]
// @Security BearerAuth
func (h *ChatHandler) HandleSendProposal(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	chatID, err := strconv.ParseUint(ctx.Param("chatID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid chat ID: %w", err)))
		return
	}

	var input request.SendProposalRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	message, err := h.svc.SendProposal(ctx.Request.Context(), uint(chatID), user, input.DomainItems(), input.ClientMsgID)
	if err != nil {
		renderChatErr(ctx, fmt.Errorf("v1.HandleSendProposal -> h.svc.SendProposal -> %w", err))
		return
	}

	h.broadcastEvent(message.ChatID, "proposal", message)

	ctx.JSON(http.StatusCreated, message)
}

// HandleAcceptProposal godoc
// @Summary      Accept a transaction proposal
// @Description  Moves the proposal carried by the message to Accepted. Only the receiving party may accept; accepted and rejected are final.
// @Tags         chats,proposals
// @Produce      json
// @Param        chatID     path      int true  "Chat ID"
// @Param        messageID  path      int true  "Message ID"
// @Success      200  {object}  domain.TransactionProposal
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /chats/{chatID}/proposals/{messageID}/accept [post]
// @Security BearerAuth
func (h *ChatHandler) HandleAcceptProposal(ctx *gin.Context) {
	h.handleResolveProposal(ctx, domain.ProposalAccepted)
}

// HandleRejectProposal godoc
// @Summary      Reject a transaction proposal
// @Tags         chats,proposals
// @Produce      json
// @Param        chatID     path      int true  "Chat ID"
// @Param        messageID  path      int true  "Message ID"
// @Success      200  {object}  domain.TransactionProposal
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /chats/{chatID}/proposals/{messageID}/reject [post]
// @Security BearerAuth
func (h *ChatHandler) HandleRejectProposal(ctx *gin.Context) {
	h.handleResolveProposal(ctx, domain.ProposalRejected)
}

func (h *ChatHandler) handleResolveProposal(ctx *gin.Context, status domain.ProposalStatus) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	chatID, err := strconv.ParseUint(ctx.Param("chatID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid chat ID: %w", err)))
		return
	}

	messageID, err := strconv.ParseUint(ctx.Param("messageID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid message ID: %w", err)))
		return
	}

	var proposal domain.TransactionProposal
	if status == domain.ProposalAccepted {
		proposal, err = h.svc.AcceptProposal(ctx.Request.Context(), uint(chatID), uint(messageID), user)
	} else {
		proposal, err = h.svc.RejectProposal(ctx.Request.Context(), uint(chatID), uint(messageID), user)
	}
	if err != nil {
		renderChatErr(ctx, fmt.Errorf("v1.handleResolveProposal -> %w", err))
		return
	}

	h.broadcastEvent(uint(chatID), "proposal_resolved", proposal)

	ctx.JSON(http.StatusOK, proposal)
}

// HandleWebSocket godoc
// @Summary      Establish a WebSocket connection for a chat
// @Description  Upgrades to WebSocket for real-time messaging between the organization and the vendor of the chat. Pass the JWT as a `token` query parameter.
// @Tags         chats
// @Produce      json
// @Param        chatID  path  int     true   "Chat ID"
// @Param        token   query string  false  "JWT when the Authorization header cannot be set"
// @Success      101  {string}  string "Switching Protocols to WebSocket"
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /chats/{chatID}/ws [get]
// @Security BearerAuth
func (h *ChatHandler) HandleWebSocket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	chatID, err := strconv.ParseUint(ctx.Param("chatID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid chat ID: %w", err)))
		return
	}

	// Membership is checked before the upgrade so outsiders get a plain 403.
	if _, err := h.svc.GetChat(ctx.Request.Context(), uint(chatID), user); err != nil {
		renderChatErr(ctx, fmt.Errorf("v1.HandleWebSocket -> h.svc.GetChat -> %w", err))
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		user:   user,
		chatID: uint(chatID),
	}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		if _, err := w.Write(message); err != nil {
			return
		}
		if err := w.Close(); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// wsCommand is an inbound websocket frame. Action selects the operation;
// the remaining fields are action-specific.
type wsCommand struct {
	Action      string                 `json:"action"`
	Text        string                 `json:"text,omitempty"`
	ClientMsgID string                 `json:"client_msg_id,omitempty"`
	Items       []request.ProposalItem `json:"items,omitempty"`
	MessageID   uint                   `json:"message_id,omitempty"`
}

func (c *Client) readPump(h *ChatHandler) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read failed",
					zap.Uint("chat_id", c.chatID),
					zap.Uint("user_id", c.user.ID),
					zap.Error(err),
				)
			}
			break
		}

		var cmd wsCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.sendError(fmt.Sprintf("malformed frame: %v", err))
			continue
		}

		h.dispatch(c, cmd)
	}
}

func (h *ChatHandler) dispatch(c *Client, cmd wsCommand) {
	ctx := context.Background()

	switch cmd.Action {
	case "message":
		message, err := h.svc.SendMessage(ctx, c.chatID, c.user, cmd.Text, cmd.ClientMsgID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		h.broadcastEvent(c.chatID, "message", message)

	case "proposal":
		items := make([]domain.ProposalItem, 0, len(cmd.Items))
		for _, item := range cmd.Items {
			items = append(items, domain.ProposalItem{
				Name:           item.Name,
				Quantity:       item.Quantity,
				UnitPriceCents: item.UnitPriceCents,
			})
		}
		message, err := h.svc.SendProposal(ctx, c.chatID, c.user, items, cmd.ClientMsgID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		h.broadcastEvent(c.chatID, "proposal", message)

	case "accept":
		proposal, err := h.svc.AcceptProposal(ctx, c.chatID, cmd.MessageID, c.user)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		h.broadcastEvent(c.chatID, "proposal_resolved", proposal)

	case "reject":
		proposal, err := h.svc.RejectProposal(ctx, c.chatID, cmd.MessageID, c.user)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		h.broadcastEvent(c.chatID, "proposal_resolved", proposal)

	default:
		c.sendError(fmt.Sprintf("unknown action %q", cmd.Action))
	}
}

// broadcastEvent fans a domain event out to every connection in the chat's
// room. REST mutations go through here too so websocket listeners see them.
func (h *ChatHandler) broadcastEvent(chatID uint, eventType string, payload interface{}) {
	frame, err := json.Marshal(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		zap.L().Error("marshal websocket event failed", zap.Error(err))
		return
	}

	h.broadcast <- roomMessage{chatID: chatID, payload: frame}
}

func (c *Client) sendError(msg string) {
	frame, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
	c.trySend(frame)
}

func renderChatErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		response.RenderErr(ctx, response.ErrNotFound("chat", "ID", ctx.Param("chatID")))
	case errors.Is(err, service.ErrMessageNotFound):
		response.RenderErr(ctx, response.ErrNotFound("message", "ID", ctx.Param("messageID")))
	case errors.Is(err, service.ErrUserNotFound):
		response.RenderErr(ctx, response.ErrNotFound("user", "ID", "counterpart"))
	case errors.Is(err, service.ErrNotChatParticipant),
		errors.Is(err, service.ErrNotProposalRecipient):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	case errors.Is(err, service.ErrInvalidTransition):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrInvalidProposal),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrNoProposal),
		errors.Is(err, service.ErrInvalidCounterpart):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
