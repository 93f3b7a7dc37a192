package models

import "time"

// APIResponse is the generic envelope for every HTTP response. A failed
// operation always comes back as {success:false, error}; callers treat the
// absence of success as a retry-able condition, never a crash.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// OK builds a success envelope.
func OK(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data, Timestamp: time.Now()}
}

// Fail builds an error envelope.
func Fail(msg string) APIResponse {
	return APIResponse{Success: false, Error: msg, Timestamp: time.Now()}
}

// PaginationMeta describes one page of results.
type PaginationMeta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPaginationMeta builds pagination metadata consistently
func NewPaginationMeta(total, limit, offset int) PaginationMeta {
	return PaginationMeta{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}
