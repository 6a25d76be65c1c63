// Package user holds the account aggregate that wallets, forwards and
// agents hang off. Authentication lives at the interface layer.
package user

import "time"

// Role decides placement rules: admins may use any agent, users only
// agents they own or were granted.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	id        uint
	name      string
	email     string
	role      Role
	createdAt time.Time
}

func NewUser(name, email string) *User {
	return &User{name: name, email: email, role: RoleUser, createdAt: time.Now()}
}

func ReconstructUser(id uint, name, email string, role Role, createdAt time.Time) *User {
	if !role.IsValid() {
		role = RoleUser
	}
	return &User{id: id, name: name, email: email, role: role, createdAt: createdAt}
}

func (u *User) ID() uint             { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) Role() Role           { return u.role }
func (u *User) IsAdmin() bool        { return u.role == RoleAdmin }
func (u *User) CreatedAt() time.Time { return u.createdAt }

func (u *User) SetID(id uint) { u.id = id }
