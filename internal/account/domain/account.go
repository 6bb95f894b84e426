package domain

import (
	"time"

	"realtime_chat_service/pkg/encrypt"
)

// AccountStatus account lifecycle state
type AccountStatus int

// states: 0=offline, 1=online, 2=ban, 3=delete
const (
	// AccountStatusOffLine no live session
	AccountStatusOffLine AccountStatus = iota
	// AccountStatusOnLine at least one live session
	AccountStatusOnLine
	// AccountStatusBan blocked from logging in
	AccountStatusBan
	// AccountStatusDelete soft deleted
	AccountStatusDelete
)

// Account a registered user of the chat service
type Account struct {
	ID       int64
	UserID   string
	Name     string
	Email    string
	Password string
	Status   AccountStatus
}

// AccountSession one login session kept in redis until it expires
type AccountSession struct {
	Token        string    `json:"Token"`
	UserID       string    `json:"UserID"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// IsPasswordMatch verify the stored hash against inputPwd
func (a *Account) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(a.Password, inputPwd)
}

// IsExpired check the session passed its deadline
func (s *AccountSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// AccountQuery join conditions used to look accounts up
type AccountQuery struct {
	ID     *int64  `db:"id"`
	UserID *string `db:"user_id"`
	Email  *string `db:"email"`
}
