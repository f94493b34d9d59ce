package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aboucelia/chatapp/internal/config"
	"github.com/aboucelia/chatapp/internal/lock"
	"github.com/aboucelia/chatapp/internal/session"
	"github.com/aboucelia/chatapp/internal/status"
	"go.uber.org/fx"
)

func testParams(t *testing.T, backend string) Params {
	t.Helper()
	t.Setenv("CHATAPP_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Storage.Backend = backend
	cfg.Delivery.Delay.Duration = 10 * time.Millisecond
	return Params{Profile: "test", Config: cfg}
}

func TestModuleValidates(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendBadger, config.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			if err := fx.ValidateApp(Module(testParams(t, backend))); err != nil {
				t.Fatalf("ValidateApp: %v", err)
			}
		})
	}
}

func startApp(t *testing.T, p Params) (*fx.App, *session.Manager) {
	t.Helper()
	var mgr *session.Manager
	a := fx.New(Module(p), fx.NopLogger, fx.Populate(&mgr))
	if err := a.Err(); err != nil {
		t.Fatalf("fx.New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return a, mgr
}

func stopApp(t *testing.T, a *fx.App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	tests := []struct {
		backend  string
		restored bool
	}{
		{config.BackendSQLite, true},
		{config.BackendBadger, true},
		{config.BackendMemory, false},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			p := testParams(t, tt.backend)

			a, mgr := startApp(t, p)
			if got := mgr.State(); got != status.LoggedOut {
				t.Fatalf("fresh State() = %s, want %s", got, status.LoggedOut)
			}
			s, err := mgr.Login(context.Background(), "Mona", 2)
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			userID := s.User().ID
			stopApp(t, a)

			a, mgr = startApp(t, p)
			defer stopApp(t, a)

			if !tt.restored {
				if got := mgr.State(); got != status.LoggedOut {
					t.Errorf("State() = %s, want %s", got, status.LoggedOut)
				}
				return
			}
			if got := mgr.State(); got != status.LoggedIn {
				t.Fatalf("State() = %s, want %s", got, status.LoggedIn)
			}
			if got := mgr.Current().User().ID; got != userID {
				t.Errorf("restored user %q, want %q", got, userID)
			}
			if got := len(mgr.Current().Messages(context.Background(), "chat_1")); got != 12 {
				t.Errorf("restored %d chat_1 messages, want 12", got)
			}
		})
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	p := testParams(t, config.BackendMemory)
	a, _ := startApp(t, p)
	defer stopApp(t, a)

	second := fx.New(Module(p), fx.NopLogger)
	var held *lock.HeldError
	if err := second.Err(); !errors.As(err, &held) {
		t.Fatalf("second app err = %v, want *lock.HeldError", err)
	}
}
