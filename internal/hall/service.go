package hall

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrHallNotFound     = errors.New("hall not found")
	ErrHallExists       = errors.New("hall already exists")
	ErrHallRequired     = errors.New("hallId or hallName is required")
	ErrOperatorNotFound = errors.New("hall operator not found")
	ErrInvalidEmail     = errors.New("invalid operator email")
	ErrInvalidPhone     = errors.New("invalid operator phone")
	ErrEmptyName        = errors.New("name is required")
)

// gmailDomain is accepted next to the institutional domain for operators.
const gmailDomain = "gmail.com"

var mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

type Service interface {
	CreateHall(ctx context.Context, req CreateHallRequest) (*Hall, error)
	GetAllHalls(ctx context.Context) ([]Hall, error)
	GetHallByID(ctx context.Context, id string) (*Hall, error)
	DeleteHall(ctx context.Context, id string) error

	AddOperator(ctx context.Context, req CreateOperatorRequest) (*Operator, error)
	UpdateOperator(ctx context.Context, id string, req UpdateOperatorRequest) (*Operator, error)
	GetOperator(ctx context.Context, id string) (*Operator, error)
	ListOperators(ctx context.Context) ([]Operator, error)
	OperatorsForHallID(ctx context.Context, hallID string) ([]Operator, error)
	OperatorsForHall(ctx context.Context, hallName string) ([]Operator, error)
	DeleteOperator(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	validate *validator.Validate
	domain   string
}

// NewService builds the hall service. domain is the institutional mail domain
// operators may use besides gmail.
func NewService(repo Repository, domain string) Service {
	return &service{
		repo:     repo,
		validate: validator.New(),
		domain:   strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@")),
	}
}

func (s *service) CreateHall(ctx context.Context, req CreateHallRequest) (*Hall, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}

	existing, err := s.repo.FindHallByName(ctx, name)
	if err != nil && !errors.Is(err, ErrHallNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrHallExists
	}

	return s.repo.CreateHall(ctx, &Hall{
		Name:     name,
		Location: strings.TrimSpace(req.Location),
		Capacity: req.Capacity,
	})
}

func (s *service) GetAllHalls(ctx context.Context) ([]Hall, error) {
	return s.repo.GetAllHalls(ctx)
}

func (s *service) GetHallByID(ctx context.Context, id string) (*Hall, error) {
	return s.repo.GetHallByID(ctx, id)
}

func (s *service) DeleteHall(ctx context.Context, id string) error {
	return s.repo.DeleteHall(ctx, id)
}

func (s *service) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	if strings.HasSuffix(email, "@"+gmailDomain) {
		return email, nil
	}
	if s.domain != "" && strings.HasSuffix(email, "@"+s.domain) {
		return email, nil
	}
	return "", ErrInvalidEmail
}

func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone != "" && !mobilePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func (s *service) resolveHall(ctx context.Context, hallID, hallName string) (*Hall, error) {
	hallID = strings.TrimSpace(hallID)
	hallName = strings.TrimSpace(hallName)
	switch {
	case hallID != "":
		return s.repo.GetHallByID(ctx, hallID)
	case hallName != "":
		return s.repo.FindHallByName(ctx, hallName)
	default:
		return nil, ErrHallRequired
	}
}

func (s *service) AddOperator(ctx context.Context, req CreateOperatorRequest) (*Operator, error) {
	email, err := s.normalizeEmail(req.HeadEmail)
	if err != nil {
		return nil, err
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	h, err := s.resolveHall(ctx, req.HallID, req.HallName)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateOperator(ctx, &Operator{
		HallID:    h.ID,
		HallName:  h.Name,
		HeadName:  strings.TrimSpace(req.HeadName),
		HeadEmail: email,
		Phone:     phone,
	})
}

func (s *service) UpdateOperator(ctx context.Context, id string, req UpdateOperatorRequest) (*Operator, error) {
	op, err := s.repo.GetOperatorByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.HeadName != nil {
		op.HeadName = strings.TrimSpace(*req.HeadName)
	}
	if req.HeadEmail != nil {
		email, err := s.normalizeEmail(*req.HeadEmail)
		if err != nil {
			return nil, err
		}
		op.HeadEmail = email
	}
	if req.Phone != nil {
		phone, err := normalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		op.Phone = phone
	}

	return s.repo.UpdateOperator(ctx, op)
}

func (s *service) GetOperator(ctx context.Context, id string) (*Operator, error) {
	return s.repo.GetOperatorByID(ctx, id)
}

func (s *service) ListOperators(ctx context.Context) ([]Operator, error) {
	return s.repo.GetAllOperators(ctx)
}

func (s *service) OperatorsForHallID(ctx context.Context, hallID string) ([]Operator, error) {
	return s.repo.GetOperatorsByHallID(ctx, hallID)
}

// OperatorsForHall matches the hall name case-insensitively, the same way
// bookings name their hall.
func (s *service) OperatorsForHall(ctx context.Context, hallName string) ([]Operator, error) {
	if strings.TrimSpace(hallName) == "" {
		return []Operator{}, nil
	}
	return s.repo.GetOperatorsByHallName(ctx, hallName)
}

func (s *service) DeleteOperator(ctx context.Context, id string) error {
	return s.repo.DeleteOperator(ctx, id)
}
