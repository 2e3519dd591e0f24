package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// userStoreInMemory — in-memory реализация UserStore с уникальным индексом по email.
type userStoreInMemory struct {
	mu      sync.RWMutex
	seq     int64
	items   map[int64]domain.User
	byEmail map[string]int64
}

// NewUserStore возвращает in-memory хранилище пользователей.
func NewUserStore() domain.UserStore {
	return &userStoreInMemory{
		items:   make(map[int64]domain.User),
		byEmail: make(map[string]int64),
	}
}

// Save создаёт пользователя с новым ID или перезаписывает существующего.
func (s *userStoreInMemory) Save(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		if _, taken := s.byEmail[user.Email]; taken {
			return domain.User{}, domain.ErrEmailConflict
		}
		s.seq++
		user.ID = s.seq
		s.items[user.ID] = user
		s.byEmail[user.Email] = user.ID
		return user, nil
	}

	current, ok := s.items[user.ID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if owner, taken := s.byEmail[user.Email]; taken && owner != user.ID {
		return domain.User{}, domain.ErrEmailConflict
	}

	delete(s.byEmail, current.Email)
	s.items[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

// FindByID возвращает пользователя или ErrUserNotFound.
func (s *userStoreInMemory) FindByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.items[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// FindAll возвращает всех пользователей по возрастанию ID.
func (s *userStoreInMemory) FindAll(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.items))
	for _, user := range s.items {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *userStoreInMemory) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.items[id]; ok {
		delete(s.byEmail, user.Email)
		delete(s.items, id)
	}
	return nil
}

// DeleteAll очищает хранилище. Счётчик ID не сбрасывается, чтобы ID не переиспользовались.
func (s *userStoreInMemory) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[int64]domain.User)
	s.byEmail = make(map[string]int64)
	return nil
}

var _ domain.UserStore = (*userStoreInMemory)(nil)
