package models

import "time"

// Todo is a single task owned by one user.
type Todo struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Completed   bool      `json:"completed"`
	CompletedAt *int64    `json:"completedAt"` // epoch millis, set iff Completed
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"-"`
}

// TodoPatch carries the only fields a client may change on a todo.
// Text is nil when the client did not send it.
type TodoPatch struct {
	Text        *string
	Completed   bool
	CompletedAt *int64
}
