package hall

import "context"

type Repository interface {
	CreateHall(ctx context.Context, h *Hall) (*Hall, error)
	GetAllHalls(ctx context.Context) ([]Hall, error)
	GetHallByID(ctx context.Context, id string) (*Hall, error)
	FindHallByName(ctx context.Context, name string) (*Hall, error)
	DeleteHall(ctx context.Context, id string) error

	CreateOperator(ctx context.Context, op *Operator) (*Operator, error)
	UpdateOperator(ctx context.Context, op *Operator) (*Operator, error)
	GetOperatorByID(ctx context.Context, id string) (*Operator, error)
	GetAllOperators(ctx context.Context) ([]Operator, error)
	GetOperatorsByHallID(ctx context.Context, hallID string) ([]Operator, error)
	GetOperatorsByHallName(ctx context.Context, hallName string) ([]Operator, error)
	DeleteOperator(ctx context.Context, id string) error
}
