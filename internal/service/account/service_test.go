package account_test

import (
	"context"
	"testing"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
	accountsvc "github.com/zhouzirui/qa-forum/frontend/internal/service/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/session"
)

type fakeAPI struct {
	calls    int
	loginErr error
}

func (f *fakeAPI) Login(_ context.Context, form account.LoginForm) (account.LoginResult, error) {
	f.calls++
	if f.loginErr != nil {
		return account.LoginResult{}, f.loginErr
	}
	return account.LoginResult{UserID: "11", Username: "ann"}, nil
}

func (f *fakeAPI) Register(_ context.Context, form account.RegisterForm) (account.RegisterResult, error) {
	f.calls++
	return account.RegisterResult{UserID: "12"}, nil
}

func TestLoginStoresSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	svc := accountsvc.NewService(&fakeAPI{}, store)

	user, err := svc.Login(ctx, account.LoginForm{UsernameOrEmail: "ann@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if user.ID != "11" || user.Username != "ann" {
		t.Fatalf("unexpected user %+v", user)
	}

	current, err := svc.Current(ctx)
	if err != nil || current == nil || current.ID != "11" {
		t.Fatalf("session not stored: %+v err=%v", current, err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout err: %v", err)
	}
	if current, _ := svc.Current(ctx); current != nil {
		t.Fatalf("expected guest after logout, got %+v", current)
	}
}

func TestLoginValidationSkipsRequest(t *testing.T) {
	api := &fakeAPI{}
	svc := accountsvc.NewService(api, session.NewMemoryStore())

	_, err := svc.Login(context.Background(), account.LoginForm{UsernameOrEmail: "ann"})
	if forum.KindOf(err) != forum.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if api.calls != 0 {
		t.Fatalf("validation failure sent %d requests", api.calls)
	}
}

func TestLoginRejectedLeavesGuest(t *testing.T) {
	ctx := context.Background()
	svc := accountsvc.NewService(&fakeAPI{loginErr: forum.Server("Invalid credentials")}, session.NewMemoryStore())

	_, err := svc.Login(ctx, account.LoginForm{UsernameOrEmail: "ann", Password: "bad"})
	if got := forum.UserMessage(err, account.MsgLoginFailed); got != "Invalid credentials" {
		t.Fatalf("unexpected message %q", got)
	}
	if current, _ := svc.Current(ctx); current != nil {
		t.Fatalf("rejected login must not create a session, got %+v", current)
	}
}

func TestRegisterLogsIn(t *testing.T) {
	ctx := context.Background()
	svc := accountsvc.NewService(&fakeAPI{}, session.NewMemoryStore())

	user, err := svc.Register(ctx, account.RegisterForm{Username: "bob", Email: "bob@example.com", Password: "x", ConfirmPassword: "x"})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if user.ID != "12" || user.Username != "bob" {
		t.Fatalf("unexpected user %+v", user)
	}
	if current, _ := svc.Current(ctx); current == nil || current.Username != "bob" {
		t.Fatalf("registration should create a session, got %+v", current)
	}
}
