package models

import "time"

// User represents an account of the auth API.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null;type:varchar(20)" validate:"required,min=3,max=20"`
	PasswordHash string    `json:"-" gorm:"not null;type:varchar(255)"` // never serialized
	AccessToken  string    `json:"-" gorm:"index;not null;type:varchar(256)"`
	CreatedAt    time.Time `json:"createdAt"`
}
