package storage

import (
	"context"
	"sync"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден.
// Изменения копии сохраняются через Save.
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		u := *user
		return &u, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Пользователь мог появиться, пока лок был отпущен
	if user, exists = r.users[userID]; !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}

	u := *user
	return &u, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	u := *user

	r.mu.Lock()
	r.users[user.ID] = &u
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
	}

	return nil
}

// Len возвращает число известных пользователей
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
