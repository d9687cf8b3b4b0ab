package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex:uq_roles_name"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// UserRole binds a user to a role. Its ID is the identity key that carts and
// payments are scoped to.
type UserRole struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_user_roles_user_role"`
	RoleID    uuid.UUID `gorm:"column:role_id;type:uuid;not null;uniqueIndex:uq_user_roles_user_role"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Role *Role `gorm:"foreignKey:RoleID"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

func (u *UserRole) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
