package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aboucelia/chatapp/internal/app"
	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/config"
	"github.com/aboucelia/chatapp/internal/profile"
	"github.com/aboucelia/chatapp/internal/session"
	"github.com/aboucelia/chatapp/internal/tui"
	"github.com/aboucelia/chatapp/internal/tui/viewmodel"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fatal(err)
	}

	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		fatal(err)
	}

	var (
		mgr *session.Manager
		b   *bus.Bus
	)
	a := fx.New(
		app.Module(app.Params{Profile: profileName, Config: cfg}),
		fx.NopLogger,
		fx.Populate(&mgr, &b),
	)
	if err := a.Err(); err != nil {
		fatal(err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		fatal(err)
	}

	runErr := tui.NewApp(viewmodel.New(mgr, b), profileName).Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		fatal(runErr)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
