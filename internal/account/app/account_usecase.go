package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"realtime_chat_service/internal/account/domain"
	"realtime_chat_service/internal/account/repository"
	chatdomain "realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/config"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/encrypt"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	token "realtime_chat_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileStore chat-side profile documents, kept in step with the account
// table so message senders always resolve
type ProfileStore interface {
	Create(ctx context.Context, user *chatdomain.User) error
	UpdateProfileImage(ctx context.Context, userID, objectName string) error
}

// AccountUseCase application services of the account side
type AccountUseCase interface {
	Register(ctx context.Context, name, email, password string) error
	FindAccount(ctx context.Context, query *domain.AccountQuery) (*domain.Account, error)
	SearchAccounts(ctx context.Context, keyword string) ([]domain.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	ForceLogout(ctx context.Context, userID string) error
	CheckSessionTimeout(ctx context.Context, token string) (bool, error)
	ReconnectSession(ctx context.Context, token string) error
	UploadAvatar(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error)
}

type accountUseCase struct {
	accountRepo repository.AccountRepository
	profiles    ProfileStore
	sessionTTL  time.Duration
	redisRepo   database.RedisRepository[domain.AccountSession]
	storage     *database.MinIOClient
}

// NewAccountUseCase create an AccountUseCase; storage may be nil
func NewAccountUseCase(accountRepo repository.AccountRepository,
	profiles ProfileStore,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.AccountSession],
	storage *database.MinIOClient,
) AccountUseCase {
	return &accountUseCase{
		accountRepo: accountRepo,
		profiles:    profiles,
		sessionTTL:  sessionTTL,
		redisRepo:   redisRepo,
		storage:     storage,
	}
}

// Register create the credential row and its chat-side profile
func (a *accountUseCase) Register(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" {
		return errprocess.Set("name and email are required")
	}
	if _, err := a.accountRepo.FindByAccount(ctx, &domain.AccountQuery{Email: &email}); err == nil {
		return errprocess.Set("email already exists")
	}
	if err := encrypt.ValidatePasswordStrength(password); err != nil {
		return err
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		logger.Log.Errorf("password err :", err)
		return err
	}

	account := domain.Account{
		UserID:   uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: pw,
	}
	if err := a.accountRepo.CreateAccount(ctx, &account); err != nil {
		return err
	}

	if err := a.profiles.Create(ctx, &chatdomain.User{
		ID:        account.UserID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}); err != nil {
		logger.Log.Error("profile create failed", zap.String("userID", account.UserID), zap.Error(err))
		return err
	}
	return nil
}

// FindAccount look one account up by id, user id or email
func (a *accountUseCase) FindAccount(ctx context.Context, query *domain.AccountQuery) (*domain.Account, error) {
	return a.accountRepo.FindByAccount(ctx, query)
}

// SearchAccounts name or email substring search, used by the contact picker
func (a *accountUseCase) SearchAccounts(ctx context.Context, keyword string) ([]domain.Account, error) {
	if keyword == "" {
		return nil, errprocess.Set("keyword is required")
	}
	return a.accountRepo.SearchByName(ctx, keyword)
}

// Login verify credentials, open a session and hand back the token
func (a *accountUseCase) Login(ctx context.Context, email, password string) (string, error) {
	account, err := a.accountRepo.FindByAccount(ctx, &domain.AccountQuery{Email: &email})
	if err != nil {
		return "", errprocess.Set("user not found")
	}
	if err = account.IsPasswordMatch(password); err != nil {
		return "", errprocess.Wrap("password can't match :", err)
	}

	account.Status = domain.AccountStatusOnLine

	jwt, err := token.GenerateJWT(account.UserID, string(token.RoleUser), config.EnvConfig.AccountService)
	if err != nil {
		return "", err
	}
	now := time.Now()
	session := domain.AccountSession{
		Token:        jwt,
		UserID:       account.UserID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(a.sessionTTL),
	}
	a.redisRepo.Set(context.Background(), account.UserID, session, a.sessionTTL)

	if err := a.accountRepo.UpdateAccountStatus(ctx, account); err != nil {
		return "", err
	}
	return jwt, nil
}

// Logout close the session of the token's owner
func (a *accountUseCase) Logout(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		logger.Log.Error("Logout err :", zap.String("err", err.Error()))
		return err
	}
	logger.Log.Debug("logout", zap.String("token info", fmt.Sprintf("%v", tokenInfo)))

	a.redisRepo.Del(context.Background(), tokenInfo.UserID)

	return a.accountRepo.UpdateAccountStatus(ctx, &domain.Account{
		UserID: tokenInfo.UserID,
		Status: domain.AccountStatusOffLine,
	})
}

// ForceLogout drop a user's session regardless of who holds the token
func (a *accountUseCase) ForceLogout(ctx context.Context, userID string) error {
	a.redisRepo.Del(context.Background(), userID)
	return a.accountRepo.UpdateAccountStatus(ctx, &domain.Account{
		UserID: userID,
		Status: domain.AccountStatusOffLine,
	})
}

// CheckSessionTimeout report whether the token's session is gone or expired
func (a *accountUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		return true, err
	}
	session, err := a.redisRepo.Get(ctx, tokenInfo.UserID)
	if err != nil {
		return true, nil
	}
	return session.IsExpired(), nil
}

// ReconnectSession refresh the session deadline after a reconnect
func (a *accountUseCase) ReconnectSession(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		return err
	}
	session, err := a.redisRepo.Get(ctx, tokenInfo.UserID)
	if err != nil {
		return errprocess.Set("session not found")
	}
	now := time.Now()
	session.LastActivity = now
	session.ExpiredAt = now.Add(a.sessionTTL)
	return a.redisRepo.Set(ctx, tokenInfo.UserID, session, a.sessionTTL)
}

// UploadAvatar store the avatar object and point the profile at it
func (a *accountUseCase) UploadAvatar(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error) {
	if a.storage == nil {
		return "", errprocess.Set("avatar storage disabled")
	}
	objectName := "avatars/" + userID + "-" + uuid.New().String()
	if err := a.storage.UploadStream(ctx, objectName, r, size, contentType); err != nil {
		return "", err
	}
	if err := a.profiles.UpdateProfileImage(ctx, userID, objectName); err != nil {
		return "", err
	}
	return objectName, nil
}
