package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const UserTable = "users"

type User struct {
	ID           string  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string  `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email        string  `gorm:"uniqueIndex;size:120;not null" json:"email"`
	FullName     string  `gorm:"size:100" json:"fullName"`
	StudentID    *string `gorm:"uniqueIndex;size:20" json:"studentId,omitempty"`
	ClassName    string  `gorm:"size:50" json:"className,omitempty"`
	PasswordHash string  `gorm:"size:256;not null" json:"-"`
	IsAdmin      bool    `gorm:"not null;default:false" json:"isAdmin"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return UserTable }

func (u *User) SetPassword(password string) error {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(b)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
