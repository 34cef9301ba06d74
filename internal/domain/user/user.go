package user

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/domain/base"
)

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

type User struct {
	base.Model
	Email     string `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string `gorm:"not null;column:password" json:"-"`
	FirstName string `gorm:"not null;column:first_name" json:"first_name"`
	LastName  string `gorm:"not null;column:last_name" json:"last_name"`
	Role      string `gorm:"not null;default:'learner';column:role" json:"role"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
