package department

import "time"

type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type DepartmentRequest struct {
	Name string `json:"name"`
}
