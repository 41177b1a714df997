package account

import (
	"testing"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
)

func TestRegisterFormValidate(t *testing.T) {
	cases := []struct {
		name string
		form RegisterForm
		want string
	}{
		{"missing field", RegisterForm{Username: "ann", Email: "a@b.io", Password: "x"}, MsgFieldsRequired},
		{"bad email", RegisterForm{Username: "ann", Email: "ann@nowhere", Password: "x", ConfirmPassword: "x"}, MsgInvalidEmail},
		{"mismatch", RegisterForm{Username: "ann", Email: "a@b.io", Password: "x", ConfirmPassword: "y"}, MsgPasswordMismatch},
		{"ok", RegisterForm{Username: "ann", Email: "a@b.io", Password: "x", ConfirmPassword: "x"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.form.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if forum.KindOf(err) != forum.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := forum.UserMessage(err, ""); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestLoginFormValidate(t *testing.T) {
	if err := (LoginForm{UsernameOrEmail: "ann"}).Validate(); forum.KindOf(err) != forum.KindValidation {
		t.Fatalf("expected validation error for missing password, got %v", err)
	}
	if err := (LoginForm{UsernameOrEmail: "ann", Password: "pw"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
