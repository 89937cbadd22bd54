package models

import (
	"time"

	"gorm.io/gorm"
)

type Message struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	SenderID   string `json:"sender_id" gorm:"not null;size:255;index"`
	ReceiverID string `json:"receiver_id" gorm:"not null;size:255;index"`

	ApplicationID *uint `json:"application_id" gorm:"index"`

	Subject string `json:"subject" gorm:"size:200"`
	Body    string `json:"body" gorm:"not null;type:text"`

	IsRead bool       `json:"is_read" gorm:"default:false;index"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Sender      *User        `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Receiver    *User        `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID"`
	Application *Application `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
}

func (Message) TableName() string {
	return "messages"
}
