// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the server does not know the requested task.
var ErrNotFound = errors.New("not found")

// ErrBadResponse is returned when a request succeeded but its response body
// could not be decoded. For CreateTask the task exists on the server.
var ErrBadResponse = errors.New("unreadable response body")

// Service defines the interface for task backend operations.
// All remote API calls go through this interface.
// Commands and the interactive page never talk HTTP directly.
type Service interface {
	// ListTasks returns the tasks matching filter, in server order.
	// Only non-default filter values are sent to the server.
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)

	// CreateTask creates a new task and returns it as stored by the server.
	// The returned task may be zero if the server sent no body; an undecodable
	// body yields a zero task and an error wrapping ErrBadResponse.
	CreateTask(ctx context.Context, input NewTask) (Task, error)

	// ToggleTask flips the completed flag of a task.
	ToggleTask(ctx context.Context, id int64) error

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id int64) error
}
