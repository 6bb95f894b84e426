package app

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"realtime_chat_service/internal/account/domain"
	chatdomain "realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/encrypt"
	"realtime_chat_service/pkg/logger"
	token "realtime_chat_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

// MockAccountRepo Mock AccountRepository
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) CreateAccount(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}
func (m *MockAccountRepo) UpdateAccountStatus(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}
func (m *MockAccountRepo) FindByAccount(ctx context.Context, query *domain.AccountQuery) (*domain.Account, error) {
	args := m.Called(ctx, query)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockAccountRepo) SearchByName(ctx context.Context, keyword string) ([]domain.Account, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockProfileStore Mock ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Create(ctx context.Context, user *chatdomain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockProfileStore) UpdateProfileImage(ctx context.Context, userID, objectName string) error {
	args := m.Called(ctx, userID, objectName)
	return args.Error(0)
}

// MockSessionRepo Mock of the AccountSession redis repository
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Set(ctx context.Context, key string, value domain.AccountSession, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockSessionRepo) Get(ctx context.Context, key string) (domain.AccountSession, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(domain.AccountSession), args.Error(1)
	}
	return domain.AccountSession{}, args.Error(1)
}
func (m *MockSessionRepo) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *MockSessionRepo) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}
func (m *MockSessionRepo) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func TestAccountUseCase_Register(t *testing.T) {
	ctx := context.Background()
	email := "test@example.com"
	password := "!!Securepassword111"

	t.Run("register success creates account and profile", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		mockProfiles := new(MockProfileStore)

		mockRepo.On("FindByAccount", ctx, &domain.AccountQuery{Email: &email}).Return(nil, errors.New("not found")).Once()
		mockRepo.On("CreateAccount", ctx, mock.Anything).Return(nil).Once()
		mockProfiles.On("Create", ctx, mock.MatchedBy(func(u *chatdomain.User) bool {
			return u.Email == email && u.Name == "Tester" && u.ID != ""
		})).Return(nil).Once()

		uc := NewAccountUseCase(mockRepo, mockProfiles, time.Hour, new(MockSessionRepo), nil)
		err := uc.Register(ctx, "Tester", email, password)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockProfiles.AssertExpectations(t)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)

		existing := &domain.Account{ID: 1, UserID: "u1", Email: email}
		mockRepo.On("FindByAccount", ctx, &domain.AccountQuery{Email: &email}).Return(existing, nil).Once()

		uc := NewAccountUseCase(mockRepo, new(MockProfileStore), time.Hour, new(MockSessionRepo), nil)
		err := uc.Register(ctx, "Tester", email, password)

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		mockRepo.On("FindByAccount", ctx, mock.Anything).Return(nil, errors.New("not found")).Once()

		uc := NewAccountUseCase(mockRepo, new(MockProfileStore), time.Hour, new(MockSessionRepo), nil)
		err := uc.Register(ctx, "Tester", email, "weak")

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})
}

func TestAccountUseCase_Login(t *testing.T) {
	ctx := context.Background()
	email := "test@example.com"
	password := "!!Securepassword111"
	hashed, _ := encrypt.HashPassword(password)

	t.Run("login success opens a session", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		mockRedis := new(MockSessionRepo)

		account := &domain.Account{ID: 1, UserID: "u1", Email: email, Password: hashed}
		mockRepo.On("FindByAccount", ctx, &domain.AccountQuery{Email: &email}).Return(account, nil).Once()
		mockRedis.On("Set", mock.Anything, "u1", mock.Anything, time.Hour).Return(nil).Once()
		mockRepo.On("UpdateAccountStatus", ctx, mock.MatchedBy(func(a *domain.Account) bool {
			return a.Status == domain.AccountStatusOnLine
		})).Return(nil).Once()

		uc := NewAccountUseCase(mockRepo, new(MockProfileStore), time.Hour, mockRedis, nil)
		jwt, err := uc.Login(ctx, email, password)

		assert.NoError(t, err)
		assert.NotEmpty(t, jwt)

		claims, err := token.ParseJWT(jwt)
		assert.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)

		account := &domain.Account{ID: 1, UserID: "u1", Email: email, Password: hashed}
		mockRepo.On("FindByAccount", ctx, mock.Anything).Return(account, nil).Once()

		uc := NewAccountUseCase(mockRepo, new(MockProfileStore), time.Hour, new(MockSessionRepo), nil)
		_, err := uc.Login(ctx, email, "wrong-password")

		assert.Error(t, err)
	})
}

func TestAccountUseCase_SessionLifecycle(t *testing.T) {
	ctx := context.Background()

	jwt, err := token.GenerateJWT("u1", string(token.RoleUser), "account_service")
	assert.NoError(t, err)

	t.Run("live session is not timed out", func(t *testing.T) {
		mockRedis := new(MockSessionRepo)
		mockRedis.On("Get", ctx, "u1").Return(domain.AccountSession{
			UserID:    "u1",
			ExpiredAt: time.Now().Add(time.Hour),
		}, nil).Once()

		uc := NewAccountUseCase(new(MockAccountRepo), new(MockProfileStore), time.Hour, mockRedis, nil)
		expired, err := uc.CheckSessionTimeout(ctx, jwt)

		assert.NoError(t, err)
		assert.False(t, expired)
	})

	t.Run("missing session counts as timed out", func(t *testing.T) {
		mockRedis := new(MockSessionRepo)
		mockRedis.On("Get", ctx, "u1").Return(nil, errors.New("redis.Nil")).Once()

		uc := NewAccountUseCase(new(MockAccountRepo), new(MockProfileStore), time.Hour, mockRedis, nil)
		expired, err := uc.CheckSessionTimeout(ctx, jwt)

		assert.NoError(t, err)
		assert.True(t, expired)
	})

	t.Run("reconnect extends the deadline", func(t *testing.T) {
		mockRedis := new(MockSessionRepo)
		mockRedis.On("Get", ctx, "u1").Return(domain.AccountSession{
			UserID:    "u1",
			ExpiredAt: time.Now().Add(time.Minute),
		}, nil).Once()
		mockRedis.On("Set", ctx, "u1", mock.MatchedBy(func(s domain.AccountSession) bool {
			return s.ExpiredAt.After(time.Now().Add(30 * time.Minute))
		}), time.Hour).Return(nil).Once()

		uc := NewAccountUseCase(new(MockAccountRepo), new(MockProfileStore), time.Hour, mockRedis, nil)
		err := uc.ReconnectSession(ctx, jwt)

		assert.NoError(t, err)
		mockRedis.AssertExpectations(t)
	})
}
