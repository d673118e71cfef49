package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"support-chat-be/internal/entity"
)

type ByClientID struct {
	ClientID uuid.UUID
}

func (s ByClientID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("client_id = ?", s.ClientID)
}

type ByAdvisorID struct {
	AdvisorID uuid.UUID
}

func (s ByAdvisorID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("advisor_id = ?", s.AdvisorID)
}

type ByStatus struct {
	Status entity.ChatStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

type ByStatuses struct {
	Statuses []entity.ChatStatus
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

type ByChatID struct {
	ChatID uuid.UUID
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// Unread filters messages still waiting for a read receipt from the viewer:
// not yet read and not authored by the viewer.
type Unread struct {
	ViewerID uuid.UUID
}

func (s Unread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ? AND sender_id <> ?", false, s.ViewerID)
}
