// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskboard/internal/service"
)

// Epoch is the creation time of the first task added through the fake.
// Each later task is created one minute after the previous one.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int64
	calls  int
	last   service.Filter

	// Created records every create request in order.
	Created []service.NewTask

	// Error injection for testing
	ListTasksErr  error
	CreateTaskErr error
	ToggleTaskErr error
	DeleteTaskErr error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{nextID: 1}
}

// AddTask seeds a task and returns its id.
func (f *FakeService) AddTask(title string, priority service.Priority, completed bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(service.Task{Title: title, Priority: priority, Completed: completed})
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result
}

// Calls returns the number of backend calls made so far.
func (f *FakeService) Calls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls
}

// LastFilter returns the filter of the most recent ListTasks call.
func (f *FakeService) LastFilter() service.Filter {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last
}

func (f *FakeService) insert(task service.Task) int64 {
	if f.nextID == 0 {
		f.nextID = 1
	}
	task.ID = f.nextID
	created := Epoch.Add(time.Duration(task.ID-1) * time.Minute)
	task.CreatedAt = service.Timestamp{Time: created, Raw: created.Format(time.RFC3339)}
	f.nextID++
	f.tasks = append(f.tasks, task)
	return task.ID
}

// ListTasks implements service.Service.
// Status, priority and a case-insensitive search over title and description are applied.
func (f *FakeService) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = filter
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	search := strings.ToLower(filter.Search)
	result := make([]service.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		switch filter.Status {
		case service.StatusPending:
			if t.Completed {
				continue
			}
		case service.StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		if filter.Priority != "" && filter.Priority != service.PriorityAll && string(t.Priority) != filter.Priority {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, input service.NewTask) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.Created = append(f.Created, input)

	task := service.Task{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
	}
	if input.Deadline != nil {
		deadline := service.ParseTimestamp(*input.Deadline)
		task.Deadline = &deadline
	}
	f.insert(task)
	return f.tasks[len(f.tasks)-1], nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.ToggleTaskErr != nil {
		return f.ToggleTaskErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Completed = !f.tasks[i].Completed
			return nil
		}
	}
	return service.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}
