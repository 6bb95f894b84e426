package app

import (
	"fmt"

	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccountHandler handles account HTTP requests
type AccountHandler struct {
	usecase AccountUseCase
}

// NewAccountHandler create an AccountHandler
func NewAccountHandler(usecase AccountUseCase) *AccountHandler {
	return &AccountHandler{usecase: usecase}
}

// Register create a new account
// @Summary Register a new account
// @Description Creates the credential row and the chat profile
// @Tags Accounts
// @Accept json
// @Produce json
// @Success 200 {object} string "register success"
// @Failure 400 {object} string "bad request"
// @Router /account/register [post]
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("Register request", zap.String("email", req.Email))

	if err := h.usecase.Register(c.Context(), req.Name, req.Email, req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "register success"})
}

// Login open a session
// @Summary Log in
// @Tags Accounts
// @Accept json
// @Produce json
// @Success 200 {object} string "token"
// @Failure 401 {object} string "login failed"
// @Router /account/login [post]
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	token, err := h.usecase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"token": token, "message": "login success"})
}

// Logout close the caller's session
func (h *AccountHandler) Logout(c *fiber.Ctx) error {
	token := c.Query(middlewares.QueryToken)
	if token == "" {
		token = c.Cookies(middlewares.CookieToken)
	}
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing token"})
	}

	if err := h.usecase.Logout(c.Context(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "logout success"})
}

// Search find accounts by name or email fragment
// @Summary Search accounts
// @Tags Accounts
// @Produce json
// @Param keyword query string true "name or email fragment"
// @Success 200 {array} domain.Account
// @Router /account/search [get]
func (h *AccountHandler) Search(c *fiber.Ctx) error {
	accounts, err := h.usecase.SearchAccounts(c.Context(), c.Query("keyword"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	type result struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
		Email  string `json:"email"`
	}
	results := make([]result, 0, len(accounts))
	for _, a := range accounts {
		results = append(results, result{UserID: a.UserID, Name: a.Name, Email: a.Email})
	}
	return c.JSON(results)
}

// UploadAvatar store the caller's avatar
func (h *AccountHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, ok := c.Locals(middlewares.TokenUserID).(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": fmt.Sprintf("c.Locals(%s) is nil", middlewares.TokenUserID)})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing avatar file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable avatar file"})
	}
	defer file.Close()

	objectName, err := h.usecase.UploadAvatar(c.Context(), userID, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"profileImage": objectName})
}
