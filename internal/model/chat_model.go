package model

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientId  uuid.UUID  `gorm:"type:uuid;not null;index"`
	AdvisorId *uuid.UUID `gorm:"type:uuid;index"`
	Status    string     `gorm:"type:varchar(20);not null;index;default:'PENDING'"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (Chat) TableName() string {
	return "chats"
}
