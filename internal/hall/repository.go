package hall

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateHall(ctx context.Context, h *Hall) (*Hall, error) {
	query := `
		INSERT INTO halls (id, name, location, capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, location, capacity, created_at
	`

	var hall Hall
	err := r.db.GetContext(ctx, &hall, query, uuid.NewString(), h.Name, h.Location, h.Capacity)
	if err != nil {
		return nil, err
	}

	return &hall, nil
}

func (r *repository) GetAllHalls(ctx context.Context) ([]Hall, error) {
	query := `
		SELECT id, name, location, capacity, created_at
		FROM halls
		ORDER BY name
	`

	halls := []Hall{}
	err := r.db.SelectContext(ctx, &halls, query)
	if err != nil {
		return nil, err
	}

	return halls, nil
}

func (r *repository) GetHallByID(ctx context.Context, id string) (*Hall, error) {
	query := `
		SELECT id, name, location, capacity, created_at
		FROM halls
		WHERE id = $1
	`

	var hall Hall
	err := r.db.GetContext(ctx, &hall, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHallNotFound
	}
	if err != nil {
		return nil, err
	}

	return &hall, nil
}

func (r *repository) FindHallByName(ctx context.Context, name string) (*Hall, error) {
	query := `
		SELECT id, name, location, capacity, created_at
		FROM halls
		WHERE LOWER(name) = $1
		LIMIT 1
	`

	var hall Hall
	err := r.db.GetContext(ctx, &hall, query, strings.ToLower(strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHallNotFound
	}
	if err != nil {
		return nil, err
	}

	return &hall, nil
}

func (r *repository) DeleteHall(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM halls WHERE id = $1`, id, ErrHallNotFound)
}

func (r *repository) deleteByID(ctx context.Context, query, id string, notFound error) error {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}

const operatorColumns = `id, hall_id, hall_name, head_name, head_email, phone, created_at`

func (r *repository) CreateOperator(ctx context.Context, op *Operator) (*Operator, error) {
	query := `
		INSERT INTO hall_operators (id, hall_id, hall_name, head_name, head_email, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + operatorColumns

	var created Operator
	err := r.db.GetContext(ctx, &created, query,
		uuid.NewString(), op.HallID, op.HallName, op.HeadName, op.HeadEmail, op.Phone)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) UpdateOperator(ctx context.Context, op *Operator) (*Operator, error) {
	query := `
		UPDATE hall_operators
		SET head_name = $2, head_email = $3, phone = $4
		WHERE id = $1
		RETURNING ` + operatorColumns

	var updated Operator
	err := r.db.GetContext(ctx, &updated, query, op.ID, op.HeadName, op.HeadEmail, op.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *repository) GetOperatorByID(ctx context.Context, id string) (*Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM hall_operators WHERE id = $1`

	var op Operator
	err := r.db.GetContext(ctx, &op, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}

	return &op, nil
}

func (r *repository) selectOperators(ctx context.Context, query string, args ...interface{}) ([]Operator, error) {
	ops := []Operator{}
	if err := r.db.SelectContext(ctx, &ops, query, args...); err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *repository) GetAllOperators(ctx context.Context) ([]Operator, error) {
	return r.selectOperators(ctx, `SELECT `+operatorColumns+` FROM hall_operators ORDER BY hall_name, head_name`)
}

func (r *repository) GetOperatorsByHallID(ctx context.Context, hallID string) ([]Operator, error) {
	return r.selectOperators(ctx, `SELECT `+operatorColumns+` FROM hall_operators WHERE hall_id = $1`, hallID)
}

func (r *repository) GetOperatorsByHallName(ctx context.Context, hallName string) ([]Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM hall_operators WHERE LOWER(TRIM(hall_name)) = $1`
	return r.selectOperators(ctx, query, strings.ToLower(strings.TrimSpace(hallName)))
}

func (r *repository) DeleteOperator(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM hall_operators WHERE id = $1`, id, ErrOperatorNotFound)
}
