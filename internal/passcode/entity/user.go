package entity

import "time"

// User is the account a verified identity resolves to.
type User struct {
	ID             int64
	Identity       string
	IsNew          bool
	CreatedAt      time.Time
	LastVerifiedAt time.Time
}
