package department

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

func (r *repository) Create(ctx context.Context, name string) (*Department, error) {
	query := `
		INSERT INTO departments (id, name)
		VALUES ($1, $2)
		RETURNING id, name, created_at
	`

	var d Department
	if err := r.db.GetContext(ctx, &d, query, uuid.NewString(), name); err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *repository) Update(ctx context.Context, id, name string) (*Department, error) {
	query := `
		UPDATE departments SET name = $2
		WHERE id = $1
		RETURNING id, name, created_at
	`

	var d Department
	err := r.db.GetContext(ctx, &d, query, id, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepartmentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Department, error) {
	departments := []Department{}
	err := r.db.SelectContext(ctx, &departments, `SELECT id, name, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}

	return departments, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Department, error) {
	var d Department
	err := r.db.GetContext(ctx, &d, `SELECT id, name, created_at FROM departments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepartmentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*Department, error) {
	query := `SELECT id, name, created_at FROM departments WHERE LOWER(name) = $1 LIMIT 1`

	var d Department
	err := r.db.GetContext(ctx, &d, query, strings.ToLower(strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepartmentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrDepartmentNotFound
	}

	return nil
}
