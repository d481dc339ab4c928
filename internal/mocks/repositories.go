package mocks

import (
	"context"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// MockUserRepository is a mock implementation of UserRepository. Unset
// lookups report domain.ErrNotFound.
type MockUserRepository struct {
	SaveFunc        func(ctx context.Context, user *domain.User) error
	FindByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
	FindByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

func (m *MockUserRepository) Save(ctx context.Context, user *domain.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrNotFound
}

// MockRecordRepository is a mock implementation of RecordRepository for any
// farm record type. Unset funcs succeed; FindByID reports domain.ErrNotFound.
type MockRecordRepository[T any] struct {
	CreateFunc     func(ctx context.Context, rec *T) error
	UpdateFunc     func(ctx context.Context, rec *T) error
	FindByIDFunc   func(ctx context.Context, id string) (*T, error)
	FindByFarmFunc func(ctx context.Context, farmID string, filter ports.ListFilter) ([]T, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockRecordRepository[T]) Create(ctx context.Context, rec *T) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	return nil
}

func (m *MockRecordRepository[T]) Update(ctx context.Context, rec *T) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, rec)
	}
	return nil
}

func (m *MockRecordRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockRecordRepository[T]) FindByFarm(ctx context.Context, farmID string, filter ports.ListFilter) ([]T, error) {
	if m.FindByFarmFunc != nil {
		return m.FindByFarmFunc(ctx, farmID, filter)
	}
	return nil, nil
}

func (m *MockRecordRepository[T]) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
