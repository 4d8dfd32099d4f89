package domain

import (
	"time"
)

// UserModel is the GORM model for users table.
type UserModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	ExternalID *int64    `gorm:"column:external_id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Job        string    `gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Email:      m.Email,
		Name:       m.Name,
		Job:        m.Job,
		CreatedAt:  m.CreatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		Name:       u.Name,
		Job:        u.Job,
		CreatedAt:  u.CreatedAt,
	}
}

// AvatarModel is the GORM model for avatars table. The unique index on
// user_id keeps one avatar per user even across service instances.
type AvatarModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Hash      string    `gorm:"type:char(64);not null"`
	Image     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for AvatarModel.
func (AvatarModel) TableName() string {
	return "avatars"
}

// ToDomain converts AvatarModel to domain Avatar.
func (m *AvatarModel) ToDomain() *Avatar {
	return &Avatar{
		ID:        m.ID,
		UserID:    m.UserID,
		Hash:      m.Hash,
		Image:     m.Image,
		CreatedAt: m.CreatedAt,
	}
}

// AvatarToModel converts domain Avatar to AvatarModel.
func AvatarToModel(a *Avatar) *AvatarModel {
	return &AvatarModel{
		ID:        a.ID,
		UserID:    a.UserID,
		Hash:      a.Hash,
		Image:     a.Image,
		CreatedAt: a.CreatedAt,
	}
}
