package service

import (
	"context"

	"taskManager/internal/auth"
	"taskManager/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Profile is the caller's own account summary.
type Profile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ProfileService resolves the authenticated caller's account.
type ProfileService struct {
	users repository.UserRepositoryI
}

func NewProfileService(users repository.UserRepositoryI) *ProfileService {
	return &ProfileService{users: users}
}

// Get returns the profile of the principal in ctx. A token whose user has since
// disappeared yields NotFound.
func (s *ProfileService) Get(ctx context.Context) (*Profile, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get user: %v", err)
	}
	if u == nil {
		return nil, status.Error(codes.NotFound, "User not found")
	}
	return &Profile{ID: u.ID, Name: u.Name, DisplayName: u.DisplayName()}, nil
}
