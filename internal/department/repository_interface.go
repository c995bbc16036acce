package department

import "context"

type Repository interface {
	Create(ctx context.Context, name string) (*Department, error)
	Update(ctx context.Context, id, name string) (*Department, error)
	GetAll(ctx context.Context) ([]Department, error)
	GetByID(ctx context.Context, id string) (*Department, error)
	FindByName(ctx context.Context, name string) (*Department, error)
	Delete(ctx context.Context, id string) error
}
