package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"taskManager/internal/auth"
	"taskManager/internal/testutil"
	"taskManager/models"
	"taskManager/repository"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const testSecret = "service-secret"

type deps struct {
	users    *repository.UserRepository
	tokens   *auth.TokenManager
	auth     *AuthService
	tasks    *TaskService
	profiles *ProfileService
}

func newDeps(t *testing.T, name string) deps {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	users := repository.NewUserRepository(d)
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	return deps{
		users:    users,
		tokens:   tokens,
		auth:     NewAuthService(users, auth.NewPasswordHasher(bcrypt.MinCost, 6), tokens),
		tasks:    NewTaskService(repository.NewTaskRepository(d)),
		profiles: NewProfileService(users),
	}
}

// as returns a context carrying the given user's principal.
func as(userID int64) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{UserID: userID})
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if got := status.Code(err); got != code {
		t.Fatalf("code = %v (%v), want %v", got, err, code)
	}
}

func strp(s string) *string { return &s }

func TestRegister_ValidationAndConflict(t *testing.T) {
	d := newDeps(t, "svc_register")
	ctx := context.Background()

	_, err := d.auth.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret1"})
	wantCode(t, err, codes.InvalidArgument)
	_, err = d.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "short"})
	wantCode(t, err, codes.InvalidArgument)
	_, err = d.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: strings.Repeat("p", 73)})
	wantCode(t, err, codes.InvalidArgument)

	id, err := d.auth.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@X.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected generated id")
	}

	_, err = d.auth.Register(ctx, RegisterInput{Name: "Ann2", Email: "ann@x.com", Password: "secret2"})
	wantCode(t, err, codes.AlreadyExists)

	u, err := d.users.GetByEmail(ctx, "ann@x.com")
	if err != nil || u == nil || u.ID != id {
		t.Fatalf("stored user mismatch: %+v err=%v", u, err)
	}
	if u.PasswordHash == "secret1" {
		t.Fatalf("password stored in plaintext")
	}
}

// racingUsers reports the email as free, then loses the insert to a concurrent
// registration.
type racingUsers struct {
	repository.UserRepositoryI
}

func (racingUsers) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }

func (racingUsers) Create(context.Context, string, string, string) (*models.User, error) {
	return nil, repository.ErrEmailTaken
}

func TestRegister_UniqueConstraintRace(t *testing.T) {
	s := NewAuthService(racingUsers{}, auth.NewPasswordHasher(bcrypt.MinCost, 6), auth.NewTokenManager(testSecret, time.Hour))
	_, err := s.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	wantCode(t, err, codes.AlreadyExists)
	if msg := status.Convert(err).Message(); msg != "User already exists" {
		t.Fatalf("message = %q", msg)
	}
}

func TestLogin(t *testing.T) {
	d := newDeps(t, "svc_login")
	ctx := context.Background()
	id, err := d.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := d.auth.Login(ctx, LoginInput{Email: "ann@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	p, err := d.tokens.Parse(res.Token)
	if err != nil {
		t.Fatalf("Parse issued token: %v", err)
	}
	if p.UserID != id || p.Email != "ann@x.com" {
		t.Fatalf("token principal mismatch: %+v", p)
	}
	if res.User != (PublicUser{ID: id, Email: "ann@x.com", Name: "Ann"}) {
		t.Fatalf("unexpected user projection: %+v", res.User)
	}

	// Wrong password and unknown user are indistinguishable.
	_, errWrong := d.auth.Login(ctx, LoginInput{Email: "ann@x.com", Password: "nope"})
	wantCode(t, errWrong, codes.Unauthenticated)
	_, errUnknown := d.auth.Login(ctx, LoginInput{Email: "who@x.com", Password: "secret1"})
	wantCode(t, errUnknown, codes.Unauthenticated)
	if status.Convert(errWrong).Message() != status.Convert(errUnknown).Message() {
		t.Fatalf("login failures must not reveal which part was wrong")
	}

	_, err = d.auth.Login(ctx, LoginInput{Email: "ann@x.com"})
	wantCode(t, err, codes.InvalidArgument)
}

func TestTasks_RequirePrincipal(t *testing.T) {
	d := newDeps(t, "svc_noprincipal")
	_, err := d.tasks.List(context.Background())
	wantCode(t, err, codes.Unauthenticated)
	_, err = d.profiles.Get(context.Background())
	wantCode(t, err, codes.Unauthenticated)
}

func TestTasks_CreateDefaultsAndValidation(t *testing.T) {
	d := newDeps(t, "svc_create")
	u, _ := d.users.Create(context.Background(), "A", "a@x.com", "h")
	ctx := as(u.ID)

	_, err := d.tasks.Create(ctx, CreateTaskInput{Title: "   "})
	wantCode(t, err, codes.InvalidArgument)
	_, err = d.tasks.Create(ctx, CreateTaskInput{Title: "x", Status: strp("done")})
	wantCode(t, err, codes.InvalidArgument)
	_, err = d.tasks.Create(ctx, CreateTaskInput{Title: "x", Priority: strp("urgent")})
	wantCode(t, err, codes.InvalidArgument)
	_, err = d.tasks.Create(ctx, CreateTaskInput{Title: "x", DueDate: strp("tomorrow")})
	wantCode(t, err, codes.InvalidArgument)

	tk, err := d.tasks.Create(ctx, CreateTaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.Status != models.TaskStatusPending || tk.Priority != models.TaskPriorityMedium || tk.UserID != u.ID {
		t.Fatalf("defaults not applied: %+v", tk)
	}

	got, err := d.tasks.Get(ctx, tk.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Buy milk" || got.ID != tk.ID || !got.CreatedAt.Equal(tk.CreatedAt) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, tk)
	}

	full, err := d.tasks.Create(ctx, CreateTaskInput{Title: "Taxes", Description: strp("file 1040"),
		Status: strp("in_progress"), Priority: strp("high"), DueDate: strp("2025-04-15")})
	if err != nil {
		t.Fatalf("Create full: %v", err)
	}
	if full.Status != models.TaskStatusInProgress || full.Priority != models.TaskPriorityHigh ||
		full.Description != "file 1040" || full.DueDate == nil || full.DueDate.String() != "2025-04-15" {
		t.Fatalf("fields not stored: %+v", full)
	}
}

func TestTasks_PartialUpdate(t *testing.T) {
	d := newDeps(t, "svc_update")
	u, _ := d.users.Create(context.Background(), "A", "a@x.com", "h")
	ctx := as(u.ID)

	tk, err := d.tasks.Create(ctx, CreateTaskInput{Title: "Report", Description: strp("draft"), DueDate: strp("2025-01-31")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = d.tasks.Update(ctx, tk.ID, UpdateTaskInput{})
	wantCode(t, err, codes.InvalidArgument)
	_, err = d.tasks.Update(ctx, tk.ID, UpdateTaskInput{Title: strp("")})
	wantCode(t, err, codes.InvalidArgument)

	up, err := d.tasks.Update(ctx, tk.ID, UpdateTaskInput{Status: strp("completed")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.Status != models.TaskStatusCompleted {
		t.Fatalf("status not updated: %+v", up)
	}
	if up.Title != tk.Title || up.Description != tk.Description || up.Priority != tk.Priority ||
		up.DueDate == nil || up.DueDate.String() != "2025-01-31" || !up.CreatedAt.Equal(tk.CreatedAt) {
		t.Fatalf("other fields changed: before %+v after %+v", tk, up)
	}

	cleared, err := d.tasks.Update(ctx, tk.ID, UpdateTaskInput{DueDate: strp("")})
	if err != nil {
		t.Fatalf("clear due date: %v", err)
	}
	if cleared.DueDate != nil {
		t.Fatalf("due date not cleared: %+v", cleared)
	}

	_, err = d.tasks.Update(ctx, tk.ID+999, UpdateTaskInput{Status: strp("pending")})
	wantCode(t, err, codes.NotFound)
}

func TestTasks_CrossUserIsolation(t *testing.T) {
	d := newDeps(t, "svc_isolation")
	a, _ := d.users.Create(context.Background(), "A", "a@x.com", "h")
	b, _ := d.users.Create(context.Background(), "B", "b@x.com", "h")

	tk, err := d.tasks.Create(as(a.ID), CreateTaskInput{Title: "mine"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = d.tasks.Get(as(b.ID), tk.ID)
	wantCode(t, err, codes.NotFound)
	_, err = d.tasks.Update(as(b.ID), tk.ID, UpdateTaskInput{Title: strp("theirs")})
	wantCode(t, err, codes.NotFound)
	err = d.tasks.Delete(as(b.ID), tk.ID)
	wantCode(t, err, codes.NotFound)

	// Same message as a task that never existed.
	_, errMissing := d.tasks.Get(as(b.ID), tk.ID+999)
	_, errForeign := d.tasks.Get(as(b.ID), tk.ID)
	if status.Convert(errMissing).Message() != status.Convert(errForeign).Message() {
		t.Fatalf("foreign task distinguishable from missing one")
	}

	list, err := d.tasks.List(as(b.ID))
	if err != nil || len(list) != 0 {
		t.Fatalf("b should see no tasks: %v %+v", err, list)
	}
	still, err := d.tasks.Get(as(a.ID), tk.ID)
	if err != nil || still.Title != "mine" {
		t.Fatalf("owner's task modified: %+v err=%v", still, err)
	}
}

func TestTasks_Delete(t *testing.T) {
	d := newDeps(t, "svc_delete")
	u, _ := d.users.Create(context.Background(), "A", "a@x.com", "h")
	ctx := as(u.ID)

	tk, err := d.tasks.Create(ctx, CreateTaskInput{Title: "temp"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := d.tasks.Delete(ctx, tk.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = d.tasks.Get(ctx, tk.ID)
	wantCode(t, err, codes.NotFound)
	wantCode(t, d.tasks.Delete(ctx, tk.ID), codes.NotFound)
}

func TestProfile(t *testing.T) {
	d := newDeps(t, "svc_profile")
	named, _ := d.users.Create(context.Background(), "Ann", "ann@x.com", "h")
	unnamed, _ := d.users.Create(context.Background(), "", "anon@x.com", "h")

	p, err := d.profiles.Get(as(named.ID))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *p != (Profile{ID: named.ID, Name: "Ann", DisplayName: "Ann"}) {
		t.Fatalf("unexpected profile: %+v", p)
	}

	p, err = d.profiles.Get(as(unnamed.ID))
	if err != nil {
		t.Fatalf("Get unnamed: %v", err)
	}
	if p.DisplayName != "user "+strconv.FormatInt(unnamed.ID, 10) {
		t.Fatalf("display name fallback = %q", p.DisplayName)
	}

	_, err = d.profiles.Get(as(named.ID + 999))
	wantCode(t, err, codes.NotFound)
}
