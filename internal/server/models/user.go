package models

import "time"

// User is an account that can sign in. HashedPassword holds the stored
// credential in "<salt>#<hex digest>" form.
type User struct {
	ID             int64     `db:"id"`
	UserName       string    `db:"username"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
}
