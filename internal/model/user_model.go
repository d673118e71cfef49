package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName  string     `gorm:"type:varchar(255);not null"`
	Role      string     `gorm:"type:varchar(20);not null;index"`
	AdvisorId *uuid.UUID `gorm:"type:uuid;index"` // client roster owner
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
