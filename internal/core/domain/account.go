package domain

import "time"

// Account models a registered user.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	JoinedAt     time.Time `json:"joined_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// AccountSummary is the public display view of an account.
type AccountSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Summary strips the account down to its display attributes.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
	}
}
