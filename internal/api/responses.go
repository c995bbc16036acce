package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Kind  string `json:"kind,omitempty" example:"BAD_TIME_RANGE"`
	Field string `json:"field,omitempty" example:"endTime"`
}

// ConflictResponse is returned with 409 when a hall is already taken.
type ConflictResponse struct {
	Error    string      `json:"error" example:"hall is already booked"`
	Conflict interface{} `json:"conflict"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
