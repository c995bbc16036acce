package booking

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps bookings in process memory, in insertion order.
// It implements Repository only, so conflict checks against it scan FindAll.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Booking
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]Booking)}
}

func (r *MemoryRepository) Save(_ context.Context, b *Booking) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, ok := r.byID[b.ID]; !ok {
		r.order = append(r.order, b.ID)
	}
	r.byID[b.ID] = b.clone()

	saved := b.clone()
	return &saved, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byID[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	c := b.clone()
	return &c, nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrBookingNotFound
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) filter(keep func(*Booking) bool) []Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Booking{}
	for _, id := range r.order {
		b := r.byID[id]
		if keep(&b) {
			out = append(out, b.clone())
		}
	}
	return out
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]Booking, error) {
	return r.filter(func(*Booking) bool { return true }), nil
}

func (r *MemoryRepository) FindByHallAndDate(_ context.Context, hall, date string) ([]Booking, error) {
	return r.filter(func(b *Booking) bool {
		return SameHall(b.HallName, hall) && b.Date == date
	}), nil
}

func (r *MemoryRepository) FindByDate(_ context.Context, date string) ([]Booking, error) {
	return r.filter(func(b *Booking) bool { return b.Date == date }), nil
}

func (r *MemoryRepository) FindByDepartmentAndEmail(_ context.Context, department, email string) ([]Booking, error) {
	return r.filter(func(b *Booking) bool {
		return b.Department == department && b.Email == email
	}), nil
}

func (r *MemoryRepository) FindByStatus(_ context.Context, status Status) ([]Booking, error) {
	return r.filter(func(b *Booking) bool {
		return strings.EqualFold(strings.TrimSpace(string(b.Status)), strings.TrimSpace(string(status)))
	}), nil
}
