package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

type userStore struct {
	db *sql.DB
}

// NewUserStore создаёт PostgreSQL-реализацию UserStore.
func NewUserStore(store *Store) domain.UserStore {
	return &userStore{db: store.DB()}
}

func (s *userStore) Save(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if user.ID == 0 {
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO users (name, address, phone, email)
			VALUES ($1, $2, $3, $4)
			RETURNING uid
		`, user.Name, user.Address, user.Phone, user.Email).Scan(&user.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.User{}, domain.ErrEmailConflict
			}
			return domain.User{}, fmt.Errorf("insert user: %w", err)
		}
		return user, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, address = $3, phone = $4, email = $5
		WHERE uid = $1
	`, user.ID, user.Name, user.Address, user.Phone, user.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailConflict
		}
		return domain.User{}, fmt.Errorf("update user %d: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.User{}, fmt.Errorf("rows affected for user %d: %w", user.ID, err)
	}
	if affected == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *userStore) FindByID(ctx context.Context, id int64) (domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT uid, name, address, phone, email
		FROM users
		WHERE uid = $1
	`, id).Scan(&user.ID, &user.Name, &user.Address, &user.Phone, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (s *userStore) FindAll(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, name, address, phone, email
		FROM users
		ORDER BY uid
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Address, &user.Phone, &user.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *userStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// DeleteAll не сбрасывает последовательность uid, поэтому идентификаторы не переиспользуются.
func (s *userStore) DeleteAll(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("delete all users: %w", err)
	}
	return nil
}

var _ domain.UserStore = (*userStore)(nil)
