package model

import (
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User is an account owner. Password stores the bcrypt hash, never the plain
// text. CPF is stored with punctuation stripped.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(256);not null" json:"-"`
	FirstName string    `gorm:"type:varchar(45);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100);not null" json:"last_name"`
	CPF       string    `gorm:"type:varchar(14);uniqueIndex;not null" json:"cpf"`
	Birthdate time.Time `gorm:"type:date;not null" json:"birthdate"`
	Roles     []Role    `gorm:"many2many:user_role" json:"roles,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "user"
}

// RoleNames returns the plain role names for JWT claims.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

type Role struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
}

func (Role) TableName() string {
	return "role"
}
