package implementation

import (
	"context"
	"errors"
	"time"

	"support-chat-be/internal/apperror"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/mapper"
	"support-chat-be/internal/model"
	"support-chat-be/internal/repository/contract"
	"support-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRepository(db *gorm.DB) contract.ChatRepository {
	return &ChatRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *entity.Chat) error {
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chat = *r.mapper.ChatToEntity(m)
	return nil
}

func (r *ChatRepositoryImpl) Update(ctx context.Context, chat *entity.Chat) error {
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*chat = *r.mapper.ChatToEntity(m)
	return nil
}

func (r *ChatRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	var m model.Chat
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatToEntity(&m), nil
}

func (r *ChatRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	var models []*model.Chat
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatsToEntities(models), nil
}

func (r *ChatRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chat{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimPending is the single claim path shared by explicit assignment,
// claim-on-reply and transfer activation. The WHERE status guard makes it a
// compare-and-swap: at most one advisor wins, losers see zero rows affected.
func (r *ChatRepositoryImpl) ClaimPending(ctx context.Context, chatId, advisorId uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Chat{}).
		Where("id = ? AND status = ?", chatId, string(entity.ChatStatusPending)).
		Updates(map[string]interface{}{
			"advisor_id": advisorId,
			"status":     string(entity.ChatStatusActive),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Chat{}).Where("id = ?", chatId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.ErrChatNotFound
		}
		return apperror.ErrChatAlreadyClaimed
	}
	return nil
}

// ReassignAdvisor moves an ACTIVE chat between advisors. The WHERE advisor
// guard makes it a compare-and-swap: a concurrent transfer or close leaves
// zero rows affected instead of clobbering the newer state.
func (r *ChatRepositoryImpl) ReassignAdvisor(ctx context.Context, chatId, expectedAdvisorId, newAdvisorId uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Chat{}).
		Where("id = ? AND status = ? AND advisor_id = ?", chatId, string(entity.ChatStatusActive), expectedAdvisorId).
		Updates(map[string]interface{}{
			"advisor_id": newAdvisorId,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Chat{}).Where("id = ?", chatId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.ErrChatNotFound
		}
		return apperror.ErrChatAlreadyClaimed
	}
	return nil
}
