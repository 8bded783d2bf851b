package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID            int       `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         *string   `json:"email,omitempty" db:"email"`
	FamilyGroupID int       `json:"family_group_id" db:"family_group_id"`
	Role          UserRole  `json:"role" db:"role"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	FamilyGroupName *string `json:"family_group_name,omitempty" db:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type FamilyGroup struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	MemberCount int    `json:"member_count,omitempty" db:"-"`
	Members     []User `json:"members,omitempty" db:"-"`
}
