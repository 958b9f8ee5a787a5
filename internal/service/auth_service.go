package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"taskManager/models"
	"taskManager/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Validate(password string) error
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer mints access tokens for an identity.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, time.Time, error)
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicUser is the client-safe projection of a user.
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// LoginResult carries a fresh token and the sanitized user.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      PublicUser `json:"user"`
}

// AuthService implements registration and login.
type AuthService struct {
	users  repository.UserRepositoryI
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users repository.UserRepositoryI, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// errInvalidCredentials is shared by "no such user" and "wrong password".
var errInvalidCredentials = status.Error(codes.Unauthenticated, "Invalid credentials")

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates an account and returns its id.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return 0, status.Error(codes.InvalidArgument, "Name, email and password are required")
	}
	if err := s.hasher.Validate(in.Password); err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return 0, status.Errorf(codes.Internal, "check email: %v", err)
	}
	if exists {
		return 0, status.Error(codes.AlreadyExists, "User already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, status.Errorf(codes.Internal, "hash password: %v", err)
	}
	u, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		// Lost a race against a concurrent registration of the same email.
		if errors.Is(err, repository.ErrEmailTaken) {
			return 0, status.Error(codes.AlreadyExists, "User already exists")
		}
		return 0, status.Errorf(codes.Internal, "create user: %v", err)
	}
	log.Printf("registered user id=%d", u.ID)
	return u.ID, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "Email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get user: %v", err)
	}
	if u == nil {
		return nil, errInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
		return nil, errInvalidCredentials
	}

	tok, exp, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "issue token: %v", err)
	}
	return &LoginResult{Token: tok, ExpiresAt: exp, User: publicUser(u)}, nil
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
