package models

import (
	"strconv"
	"time"
)

type User struct {
	ID        int64
	Email     string
	Nickname  string
	Password  string
	CreatedAt time.Time
}

// OwnerID is the identity used to lay out the user's objects in blob storage.
func (u User) OwnerID() string {
	return strconv.FormatInt(u.ID, 10)
}
