package app

import (
	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatHandler handles chat HTTP requests. The REST path is authoritative
// for every mutation; the websocket only carries low-latency echoes.
type ChatHandler struct {
	chatUC    *ChatUseCase
	groupUC   *GroupUseCase
	messageUC *MessageUseCase
	storage   *database.MinIOClient
}

// NewChatHandler create a ChatHandler; storage may be nil when icon upload
// is disabled
func NewChatHandler(
	chatUC *ChatUseCase,
	groupUC *GroupUseCase,
	messageUC *MessageUseCase,
	storage *database.MinIOClient,
) *ChatHandler {
	return &ChatHandler{
		chatUC:    chatUC,
		groupUC:   groupUC,
		messageUC: messageUC,
		storage:   storage,
	}
}

// statusOf map a domain error to its HTTP status
func statusOf(err error) int {
	switch {
	case domain.IsNotFound(err):
		return fiber.StatusNotFound
	case domain.IsAuthorization(err):
		return fiber.StatusForbidden
	case err == domain.ErrMuteAdmin, err == domain.ErrRemoveAdmin:
		return fiber.StatusForbidden
	case domain.IsValidation(err), domain.IsInvariant(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
}

func actorID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(middlewares.TokenUserID).(string)
	return id, ok && id != ""
}

// AccessChat open or create the direct chat with another user
// @Summary Access a direct chat
// @Description Returns the direct chat with the given user, creating it on first contact
// @Tags Chats
// @Accept json
// @Produce json
// @Param request body object true "peer user id"
// @Success 200 {object} domain.ChatView
// @Router /chat [post]
func (h *ChatHandler) AccessChat(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	type request struct {
		UserID string `json:"userId"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	view, err := h.chatUC.AccessDirectChat(c.Context(), userID, req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// FetchChats list every chat of the caller, most recent first
// @Summary List chats
// @Tags Chats
// @Produce json
// @Success 200 {array} domain.ChatView
// @Router /chat [get]
func (h *ChatHandler) FetchChats(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	views, err := h.chatUC.FetchChats(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(views)
}

// FetchGroups list every group chat of the caller
// @Summary List group chats
// @Tags Groups
// @Produce json
// @Success 200 {array} domain.ChatView
// @Router /chat/group [get]
func (h *ChatHandler) FetchGroups(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	views, err := h.chatUC.FetchGroups(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(views)
}

// GetChat one chat by id
func (h *ChatHandler) GetChat(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	view, err := h.chatUC.GetChat(c.Context(), c.Params("chatID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// CreateGroup create a group chat
// @Summary Create a group chat
// @Description The caller becomes owner and first admin; at least two other members are required
// @Tags Groups
// @Accept json
// @Produce json
// @Param request body CreateGroupInput true "group fields"
// @Success 200 {object} domain.ChatView
// @Router /chat/group [post]
func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	var in CreateGroupInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	view, err := h.groupUC.CreateGroup(c.Context(), userID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// UpdateGroupInfo rename a group or change its icon and description
func (h *ChatHandler) UpdateGroupInfo(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	type request struct {
		Name        string `json:"name"`
		GroupIcon   string `json:"groupIcon"`
		Description string `json:"description"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	view, err := h.groupUC.UpdateGroupInfo(c.Context(), c.Params("chatID"), userID, req.Name, req.GroupIcon, req.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// UploadGroupIcon store a group icon and set it on the group
func (h *ChatHandler) UploadGroupIcon(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	if h.storage == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "icon storage disabled"})
	}

	fileHeader, err := c.FormFile("icon")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing icon file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable icon file"})
	}
	defer file.Close()

	objectName := "group-icons/" + uuid.New().String()
	if err := h.storage.UploadStream(c.Context(), objectName, file, fileHeader.Size, fileHeader.Header.Get("Content-Type")); err != nil {
		logger.Log.Error("icon upload failed", zap.String("chatID", c.Params("chatID")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed"})
	}

	view, err := h.groupUC.UpdateGroupInfo(c.Context(), c.Params("chatID"), userID, "", objectName, "")
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// groupMemberOp shared shape of the member-targeting group mutations
func (h *ChatHandler) groupMemberOp(c *fiber.Ctx, op func(chatID, actorID, targetID string) (*domain.ChatView, error)) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	type request struct {
		UserID string `json:"userId"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	view, err := op(c.Params("chatID"), userID, req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// groupMembersOp shared shape of the group mutations targeting a user list
func (h *ChatHandler) groupMembersOp(c *fiber.Ctx, op func(chatID, actorID string, targetIDs []string) (*domain.ChatView, error)) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	type request struct {
		UserIDs []string `json:"users"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil || len(req.UserIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	view, err := op(c.Params("chatID"), userID, req.UserIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// AddMember add users to a group
func (h *ChatHandler) AddMember(c *fiber.Ctx) error {
	return h.groupMembersOp(c, func(chatID, actor string, targets []string) (*domain.ChatView, error) {
		return h.groupUC.AddMembers(c.Context(), chatID, actor, targets)
	})
}

// RemoveMember remove users from a group
func (h *ChatHandler) RemoveMember(c *fiber.Ctx) error {
	return h.groupMembersOp(c, func(chatID, actor string, targets []string) (*domain.ChatView, error) {
		return h.groupUC.RemoveMembers(c.Context(), chatID, actor, targets)
	})
}

// PromoteAdmin grant admin rights
func (h *ChatHandler) PromoteAdmin(c *fiber.Ctx) error {
	return h.groupMemberOp(c, func(chatID, actor, target string) (*domain.ChatView, error) {
		return h.groupUC.PromoteAdmin(c.Context(), chatID, actor, target)
	})
}

// DemoteAdmin revoke admin rights
func (h *ChatHandler) DemoteAdmin(c *fiber.Ctx) error {
	return h.groupMemberOp(c, func(chatID, actor, target string) (*domain.ChatView, error) {
		return h.groupUC.DemoteAdmin(c.Context(), chatID, actor, target)
	})
}

// MuteMember silence a group member
func (h *ChatHandler) MuteMember(c *fiber.Ctx) error {
	return h.groupMemberOp(c, func(chatID, actor, target string) (*domain.ChatView, error) {
		return h.groupUC.MuteMember(c.Context(), chatID, actor, target)
	})
}

// UnmuteMember lift a mute
func (h *ChatHandler) UnmuteMember(c *fiber.Ctx) error {
	return h.groupMemberOp(c, func(chatID, actor, target string) (*domain.ChatView, error) {
		return h.groupUC.UnmuteMember(c.Context(), chatID, actor, target)
	})
}

// TransferOwnership hand the group to another member
func (h *ChatHandler) TransferOwnership(c *fiber.Ctx) error {
	return h.groupMemberOp(c, func(chatID, actor, target string) (*domain.ChatView, error) {
		return h.groupUC.TransferOwnership(c.Context(), chatID, actor, target)
	})
}

// LeaveGroup leave a group chat
func (h *ChatHandler) LeaveGroup(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	view, err := h.groupUC.LeaveGroup(c.Context(), c.Params("chatID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// DeleteGroup delete a group chat and its messages
func (h *ChatHandler) DeleteGroup(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	if err := h.groupUC.DeleteGroup(c.Context(), c.Params("chatID"), userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "group deleted"})
}

// SendMessage create a message in a chat
// @Summary Send a message
// @Description Persists the message and fans it out to the chat; a failed fan-out never undoes the write
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body SendMessageInput true "message fields"
// @Success 200 {object} domain.MessageView
// @Router /message [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	var in SendMessageInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	view, err := h.messageUC.Send(c.Context(), userID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// FetchMessages all messages of a chat
func (h *ChatHandler) FetchMessages(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	views, err := h.messageUC.FetchMessages(c.Context(), c.Params("chatID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(views)
}

// SearchMessages content search within a chat
func (h *ChatHandler) SearchMessages(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	views, err := h.messageUC.SearchMessages(c.Context(), c.Params("chatID"), userID, c.Query("keyword"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(views)
}

// MarkDelivered record a delivery receipt
// @Summary Mark a message delivered
// @Tags Messages
// @Produce json
// @Success 200 {object} domain.MessageStatus
// @Router /message/{messageID}/delivered [put]
func (h *ChatHandler) MarkDelivered(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	status, err := h.messageUC.MarkDelivered(c.Context(), c.Params("messageID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status)
}

// MarkRead record a read receipt
// @Summary Mark a message read
// @Tags Messages
// @Produce json
// @Success 200 {object} domain.MessageStatus
// @Router /message/{messageID}/read [put]
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	status, err := h.messageUC.MarkRead(c.Context(), c.Params("messageID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status)
}

// AddReaction set the caller's reaction on a message
func (h *ChatHandler) AddReaction(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	type request struct {
		Emoji string `json:"emoji"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	msg, err := h.messageUC.AddReaction(c.Context(), c.Params("messageID"), userID, req.Emoji)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msg)
}

// RemoveReaction clear the caller's reaction on a message
func (h *ChatHandler) RemoveReaction(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	msg, err := h.messageUC.RemoveReaction(c.Context(), c.Params("messageID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msg)
}

// PinMessage pin a message in a chat
func (h *ChatHandler) PinMessage(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	chat, err := h.messageUC.PinMessage(c.Context(), c.Params("chatID"), c.Params("messageID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(chat)
}

// UnpinMessage unpin a message
func (h *ChatHandler) UnpinMessage(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing identity"})
	}
	chat, err := h.messageUC.UnpinMessage(c.Context(), c.Params("chatID"), c.Params("messageID"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(chat)
}
