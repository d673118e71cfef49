package service

import (
	"context"
	"sort"
	"sync"

	"support-chat-be/internal/apperror"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/repository/contract"
	"support-chat-be/internal/repository/specification"
	"support-chat-be/internal/repository/unitofwork"
	"support-chat-be/pkg/events"

	"github.com/google/uuid"
)

// In-memory repository fakes. They interpret the same specification values
// the GORM implementations translate to SQL, so service tests exercise the
// real query contracts without a database.

type fakeChatRepository struct {
	mu    sync.Mutex
	chats map[uuid.UUID]*entity.Chat

	// claimErr, when set, is returned by ClaimPending to simulate a lost
	// claim race regardless of stored state.
	claimErr error

	// reassignErr, when set, is returned by ReassignAdvisor to simulate a
	// concurrent transfer committing first.
	reassignErr error
}

func newFakeChatRepository() *fakeChatRepository {
	return &fakeChatRepository{chats: make(map[uuid.UUID]*entity.Chat)}
}

func copyChat(c *entity.Chat) *entity.Chat {
	clone := *c
	return &clone
}

func (r *fakeChatRepository) matches(c *entity.Chat, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if c.Id != s.ID {
				return false
			}
		case specification.ByClientID:
			if c.ClientId != s.ClientID {
				return false
			}
		case specification.ByAdvisorID:
			if c.AdvisorId == nil || *c.AdvisorId != s.AdvisorID {
				return false
			}
		case specification.ByStatus:
			if c.Status != s.Status {
				return false
			}
		case specification.ByStatuses:
			found := false
			for _, st := range s.Statuses {
				if c.Status == st {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case specification.OrderBy:
			// ordering handled by the caller
		}
	}
	return true
}

func (r *fakeChatRepository) Create(_ context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.Id] = copyChat(chat)
	return nil
}

func (r *fakeChatRepository) Update(_ context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.Id]; !ok {
		return apperror.ErrChatNotFound
	}
	r.chats[chat.Id] = copyChat(chat)
	return nil
}

func (r *fakeChatRepository) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if r.matches(c, specs) {
			return copyChat(c), nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepository) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Chat
	for _, c := range r.chats {
		if r.matches(c, specs) {
			result = append(result, copyChat(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeChatRepository) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(context.Background(), specs...)
	return int64(len(all)), nil
}

func (r *fakeChatRepository) ClaimPending(_ context.Context, chatId, advisorId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimErr != nil {
		return r.claimErr
	}
	chat, ok := r.chats[chatId]
	if !ok {
		return apperror.ErrChatNotFound
	}
	if chat.Status != entity.ChatStatusPending {
		return apperror.ErrChatAlreadyClaimed
	}
	id := advisorId
	chat.AdvisorId = &id
	chat.Status = entity.ChatStatusActive
	return nil
}

func (r *fakeChatRepository) ReassignAdvisor(_ context.Context, chatId, expectedAdvisorId, newAdvisorId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reassignErr != nil {
		return r.reassignErr
	}
	chat, ok := r.chats[chatId]
	if !ok {
		return apperror.ErrChatNotFound
	}
	if chat.Status != entity.ChatStatusActive || chat.AdvisorId == nil || *chat.AdvisorId != expectedAdvisorId {
		return apperror.ErrChatAlreadyClaimed
	}
	id := newAdvisorId
	chat.AdvisorId = &id
	return nil
}

type fakeMessageRepository struct {
	mu       sync.Mutex
	messages []*entity.Message
}

func newFakeMessageRepository() *fakeMessageRepository {
	return &fakeMessageRepository{}
}

func copyMessage(m *entity.Message) *entity.Message {
	clone := *m
	return &clone
}

func (r *fakeMessageRepository) matches(m *entity.Message, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if m.Id != s.ID {
				return false
			}
		case specification.ByChatID:
			if m.ChatId != s.ChatID {
				return false
			}
		case specification.Unread:
			if m.IsRead || m.SenderId == s.ViewerID {
				return false
			}
		case specification.OrderBy:
			// ordering applied in FindAll/FindOne
		}
	}
	return true
}

func orderDesc(specs []specification.Specification) bool {
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok {
			return s.Desc
		}
	}
	return false
}

func (r *fakeMessageRepository) Create(_ context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, copyMessage(message))
	return nil
}

func (r *fakeMessageRepository) Update(_ context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages {
		if m.Id == message.Id {
			r.messages[i] = copyMessage(message)
			return nil
		}
	}
	return apperror.ErrMessageNotFound
}

func (r *fakeMessageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeMessageRepository) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Message
	for _, m := range r.messages {
		if r.matches(m, specs) {
			result = append(result, copyMessage(m))
		}
	}
	desc := orderDesc(specs)
	sort.Slice(result, func(i, j int) bool {
		if desc {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeMessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func (r *fakeMessageRepository) MarkAsRead(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.Id == id {
			m.IsRead = true
			return nil
		}
	}
	return nil
}

func (r *fakeMessageRepository) MarkChatMessagesAsRead(_ context.Context, chatId, viewerId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ChatId == chatId && m.SenderId != viewerId {
			m.IsRead = true
		}
	}
	return nil
}

// stored returns the persisted message by id, bypassing specs.
func (r *fakeMessageRepository) stored(id uuid.UUID) *entity.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.Id == id {
			return copyMessage(m)
		}
	}
	return nil
}

type fakeUserRepository struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepository(users ...*entity.User) *fakeUserRepository {
	r := &fakeUserRepository{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range users {
		r.users[u.Id] = u
	}
	return r
}

func (r *fakeUserRepository) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, spec := range specs {
		if s, ok := spec.(specification.ByID); ok {
			if u, found := r.users[s.ID]; found {
				return u, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeUserRepository) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var result []*entity.User
	for _, spec := range specs {
		if s, ok := spec.(specification.ByIDs); ok {
			for _, id := range s.IDs {
				if u, found := r.users[id]; found {
					result = append(result, u)
				}
			}
			return result, nil
		}
	}
	for _, u := range r.users {
		result = append(result, u)
	}
	return result, nil
}

func (r *fakeUserRepository) FindClientsByAdvisorId(_ context.Context, advisorId uuid.UUID) ([]*entity.User, error) {
	var result []*entity.User
	for _, u := range r.users {
		if u.Role == entity.UserRoleClient && u.AdvisorId != nil && *u.AdvisorId == advisorId {
			result = append(result, u)
		}
	}
	return result, nil
}

type fakeUnitOfWork struct {
	chatRepo    *fakeChatRepository
	messageRepo *fakeMessageRepository
	userRepo    *fakeUserRepository

	begins    int
	commits   int
	rollbacks int
}

func (u *fakeUnitOfWork) Begin(context.Context) error { u.begins++; return nil }
func (u *fakeUnitOfWork) Commit() error               { u.commits++; return nil }
func (u *fakeUnitOfWork) Rollback() error             { u.rollbacks++; return nil }

func (u *fakeUnitOfWork) ChatRepository() contract.ChatRepository       { return u.chatRepo }
func (u *fakeUnitOfWork) MessageRepository() contract.MessageRepository { return u.messageRepo }
func (u *fakeUnitOfWork) UserRepository() contract.UserRepository       { return u.userRepo }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

func newFakeFactory(users ...*entity.User) (*fakeFactory, *fakeUnitOfWork) {
	uow := &fakeUnitOfWork{
		chatRepo:    newFakeChatRepository(),
		messageRepo: newFakeMessageRepository(),
		userRepo:    newFakeUserRepository(users...),
	}
	return &fakeFactory{uow: uow}, uow
}

// capturingPublisher records emitted domain events in order.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]string, 0, len(p.events))
	for _, e := range p.events {
		result = append(result, e.EventType())
	}
	return result
}

// capturingQueue records push jobs handed to the in-process pipeline.
type capturingQueue struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (q *capturingQueue) Publish(_ context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }
