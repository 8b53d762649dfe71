package model

import "time"

// User is an authentication identity. Profiles (patient, professional) hang
// off the user id; roles live in user_roles.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type CreateUserParams struct {
	ID           string
	Email        string
	PasswordHash string
}

type UserRole struct {
	UserID    string    `db:"user_id" json:"userId"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
