package service

import (
	"context"
	"strings"

	"taskManager/internal/auth"
	"taskManager/models"
	"taskManager/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreateTaskInput is the body of a task creation request.
type CreateTaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// UpdateTaskInput is the body of a partial update. Absent (or null) fields are
// left unchanged; an empty due_date clears it.
type UpdateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// TaskService implements the task operations of the authenticated caller.
type TaskService struct {
	tasks repository.TaskRepositoryI
}

func NewTaskService(tasks repository.TaskRepositoryI) *TaskService {
	return &TaskService{tasks: tasks}
}

// owned resolves the caller and returns the repository view restricted to
// their tasks. Every operation goes through it.
func (s *TaskService) owned(ctx context.Context) (repository.OwnedTasksI, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.tasks.ForOwner(p.UserID), nil
}

// List returns the caller's tasks, newest first.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	owned, err := s.owned(ctx)
	if err != nil {
		return nil, err
	}
	list, err := owned.List(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list tasks: %v", err)
	}
	return list, nil
}

// Create validates the input and stores a new task for the caller.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	owned, err := s.owned(ctx)
	if err != nil {
		return nil, err
	}
	nt := models.NewTask{Title: strings.TrimSpace(in.Title)}
	if nt.Title == "" {
		return nil, status.Error(codes.InvalidArgument, "Task title is required")
	}
	if in.Description != nil {
		nt.Description = *in.Description
	}
	if in.Status != nil && *in.Status != "" {
		if nt.Status, err = parseStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.Priority != nil && *in.Priority != "" {
		if nt.Priority, err = parsePriority(*in.Priority); err != nil {
			return nil, err
		}
	}
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		d, err := parseDueDate(*in.DueDate)
		if err != nil {
			return nil, err
		}
		nt.DueDate = &d
	}

	t, err := owned.Create(ctx, nt)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create task: %v", err)
	}
	return t, nil
}

// Get returns one of the caller's tasks.
func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	owned, err := s.owned(ctx)
	if err != nil {
		return nil, err
	}
	t, err := owned.Get(ctx, id)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get task: %v", err)
	}
	if t == nil {
		return nil, errTaskNotFound
	}
	return t, nil
}

// Update applies the supplied fields to one of the caller's tasks.
func (s *TaskService) Update(ctx context.Context, id int64, in UpdateTaskInput) (*models.Task, error) {
	owned, err := s.owned(ctx)
	if err != nil {
		return nil, err
	}
	patch, err := toPatch(in)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, status.Error(codes.InvalidArgument, "No fields to update")
	}
	t, err := owned.Update(ctx, id, patch)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "update task: %v", err)
	}
	if t == nil {
		return nil, errTaskNotFound
	}
	return t, nil
}

// Delete removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	owned, err := s.owned(ctx)
	if err != nil {
		return err
	}
	ok, err := owned.Delete(ctx, id)
	if err != nil {
		return status.Errorf(codes.Internal, "delete task: %v", err)
	}
	if !ok {
		return errTaskNotFound
	}
	return nil
}

var errTaskNotFound = status.Error(codes.NotFound, "Task not found")

func toPatch(in UpdateTaskInput) (models.TaskPatch, error) {
	var p models.TaskPatch
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return p, status.Error(codes.InvalidArgument, "Task title cannot be empty")
		}
		p.Title = &title
	}
	p.Description = in.Description
	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if in.Priority != nil {
		pr, err := parsePriority(*in.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if in.DueDate != nil {
		if strings.TrimSpace(*in.DueDate) == "" {
			p.ClearDueDate = true
		} else {
			d, err := parseDueDate(*in.DueDate)
			if err != nil {
				return p, err
			}
			p.DueDate = &d
		}
	}
	return p, nil
}

func parseStatus(s string) (models.TaskStatus, error) {
	st := models.TaskStatus(strings.TrimSpace(s))
	if !st.Valid() {
		return "", status.Errorf(codes.InvalidArgument, "Invalid status %q: want pending, in_progress or completed", s)
	}
	return st, nil
}

func parsePriority(s string) (models.TaskPriority, error) {
	pr := models.TaskPriority(strings.TrimSpace(s))
	if !pr.Valid() {
		return "", status.Errorf(codes.InvalidArgument, "Invalid priority %q: want low, medium or high", s)
	}
	return pr, nil
}

func parseDueDate(s string) (models.Date, error) {
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, status.Errorf(codes.InvalidArgument, "Invalid due_date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
