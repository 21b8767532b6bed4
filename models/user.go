package models

type UserType string

const (
	UserTypeAgent UserType = "agent"
	UserTypeStaff UserType = "staff"
)

// User is either a seeded staff record or an agent synthesized at login
// from an allow-list hit. Agent IDs are minted per session and are not
// stable across logins.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	UserType UserType `json:"user_type"`
}
