package hall

import "time"

type Hall struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Operator is the person in charge of a hall. Operators are mailed whenever a
// booking for their hall is created, changes status or is removed.
type Operator struct {
	ID        string    `db:"id" json:"id"`
	HallID    string    `db:"hall_id" json:"hallId"`
	HallName  string    `db:"hall_name" json:"hallName"`
	HeadName  string    `db:"head_name" json:"headName"`
	HeadEmail string    `db:"head_email" json:"headEmail"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateHallRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
	Capacity int    `json:"capacity" binding:"min=0"`
}

// CreateOperatorRequest names the hall either by id or by name.
type CreateOperatorRequest struct {
	HallID    string `json:"hallId"`
	HallName  string `json:"hallName"`
	HeadName  string `json:"headName" binding:"required"`
	HeadEmail string `json:"headEmail" binding:"required"`
	Phone     string `json:"phone"`
}

// UpdateOperatorRequest changes contact details only; an operator never moves hall.
type UpdateOperatorRequest struct {
	HeadName  *string `json:"headName"`
	HeadEmail *string `json:"headEmail"`
	Phone     *string `json:"phone"`
}
