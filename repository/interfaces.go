package repository

import (
	"context"

	"taskManager/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TaskRepositoryI hands out owner-scoped views of the tasks table.
type TaskRepositoryI interface {
	ForOwner(userID int64) OwnedTasksI
}

// OwnedTasksI defines Task operations restricted to a single owner.
// A task owned by someone else behaves exactly like a missing one.
type OwnedTasksI interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, t models.NewTask) (*models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

var (
	_ UserRepositoryI = (*UserRepository)(nil)
	_ TaskRepositoryI = (*TaskRepository)(nil)
	_ OwnedTasksI     = OwnedTasks{}
)
