package models

import "time"

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	FirstName  string    `gorm:"size:150" json:"first_name"`
	LastName   string    `gorm:"size:150" json:"last_name"`
	Email      string    `gorm:"size:254" json:"email"`
	Password   string    `gorm:"size:128;not null" json:"-"`
	Avatar     string    `gorm:"size:255" json:"avatar"`
	Active     bool      `gorm:"column:is_active;not null;index" json:"is_active"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`
}
