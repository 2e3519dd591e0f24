// Package user реализует сценарии работы с пользователями OMS.
package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/metrics"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/outbox"
)

const entity = "user"

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOutbox включает запись событий user.* в outbox.
func WithOutbox(recorder *outbox.Recorder) Option {
	return func(s *Service) {
		s.events = recorder
	}
}

// WithMetrics включает учёт операций.
func WithMetrics(m *metrics.EntityMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service управляет пользователями поверх UserStore.
type Service struct {
	store   domain.UserStore
	logger  *log.Entry
	events  *outbox.Recorder
	metrics *metrics.EntityMetrics
}

// NewService создаёт сервис пользователей.
func NewService(store domain.UserStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.WithFields(log.Fields{"component": "user-service", "layer": "service"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// userPayload — тело событий user.created и user.updated.
type userPayload struct {
	UID     int64  `json:"uid"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   int64  `json:"phone"`
	Email   string `json:"email"`
}

func payloadOf(u domain.User) userPayload {
	return userPayload{UID: u.ID, Name: u.Name, Address: u.Address, Phone: u.Phone, Email: u.Email}
}

// CreateUser валидирует кандидата и сохраняет нового пользователя.
func (s *Service) CreateUser(ctx context.Context, in domain.UserInput) (user domain.User, err error) {
	defer func() { s.metrics.Record(entity, "create", err) }()

	if err := domain.ValidateUser(in); err != nil {
		return domain.User{}, err
	}

	saved, err := s.store.Save(ctx, in.Apply(domain.User{}))
	if err != nil {
		return domain.User{}, s.storeError("create", err)
	}

	s.logger.WithField("uid", saved.ID).Info("user created")
	s.events.Record(ctx, domain.AggregateUser, saved.ID, outbox.EventUserCreated, payloadOf(saved))
	return saved, nil
}

// ListUsers возвращает всех пользователей; пустой список не считается ошибкой.
func (s *Service) ListUsers(ctx context.Context) (users []domain.User, err error) {
	defer func() { s.metrics.Record(entity, "list", err) }()

	users, err = s.store.FindAll(ctx)
	if err != nil {
		return nil, s.storeError("list", err)
	}
	return users, nil
}

// GetUser возвращает пользователя или domain.ErrUserNotFound.
func (s *Service) GetUser(ctx context.Context, id int64) (user domain.User, err error) {
	defer func() { s.metrics.Record(entity, "get", err) }()

	user, err = s.store.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, s.storeError("get", err)
	}
	return user, nil
}

// UpdateUser заменяет все изменяемые поля пользователя id.
// Отсутствие пользователя проверяется раньше валидации.
func (s *Service) UpdateUser(ctx context.Context, id int64, in domain.UserInput) (user domain.User, err error) {
	defer func() { s.metrics.Record(entity, "update", err) }()

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, s.storeError("update", err)
	}
	if err := domain.ValidateUser(in); err != nil {
		return domain.User{}, err
	}

	saved, err := s.store.Save(ctx, in.Apply(current))
	if err != nil {
		return domain.User{}, s.storeError("update", err)
	}

	s.logger.WithField("uid", saved.ID).Info("user updated")
	s.events.Record(ctx, domain.AggregateUser, saved.ID, outbox.EventUserUpdated, payloadOf(saved))
	return saved, nil
}

// DeleteUser удаляет пользователя; удаление отсутствующего не ошибка.
func (s *Service) DeleteUser(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.Record(entity, "delete", err) }()

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return s.storeError("delete", err)
	}

	s.logger.WithField("uid", id).Info("user deleted")
	s.events.Record(ctx, domain.AggregateUser, id, outbox.EventUserDeleted, map[string]int64{"uid": id})
	return nil
}

// DeleteAllUsers удаляет всех пользователей.
func (s *Service) DeleteAllUsers(ctx context.Context) (err error) {
	defer func() { s.metrics.Record(entity, "delete_all", err) }()

	if err := s.store.DeleteAll(ctx); err != nil {
		return s.storeError("delete_all", err)
	}

	s.logger.Info("all users deleted")
	s.events.Record(ctx, domain.AggregateUser, 0, outbox.EventUsersPurged, struct{}{})
	return nil
}

// storeError пропускает бизнес-ошибки хранилища, остальное оборачивает в StoreError.
func (s *Service) storeError(op string, err error) error {
	if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrEmailConflict) {
		return err
	}
	s.logger.WithError(err).WithField("op", op).Error("user store failure")
	return &domain.StoreError{Op: entity + "." + op, Err: err}
}
