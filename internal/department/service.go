package department

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrDepartmentExists   = errors.New("department already exists")
	ErrEmptyName          = errors.New("department name is required")
)

type Service interface {
	Create(ctx context.Context, req DepartmentRequest) (*Department, error)
	Update(ctx context.Context, id string, req DepartmentRequest) (*Department, error)
	List(ctx context.Context) ([]Department, error)
	Get(ctx context.Context, id string) (*Department, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

// ensureUnique fails when another department already uses name, ignoring case.
func (s *service) ensureUnique(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, ErrDepartmentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return ErrDepartmentExists
	}
	return nil
}

func (s *service) Create(ctx context.Context, req DepartmentRequest) (*Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := s.ensureUnique(ctx, name, ""); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, name)
}

func (s *service) Update(ctx context.Context, id string, req DepartmentRequest) (*Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, name, id); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, name)
}

func (s *service) List(ctx context.Context) ([]Department, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) Get(ctx context.Context, id string) (*Department, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
