package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aboucelia/chatapp/internal/app"
	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/config"
	"github.com/aboucelia/chatapp/internal/profile"
	"github.com/aboucelia/chatapp/internal/session"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Usage = printUsage
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "profiles" {
		if err := listProfiles(os.Stdout, profileName, *jsonFlag); err != nil {
			fatal(err)
		}
		return
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		fatal(err)
	}

	c := &cli{mgr: mgr, bus: b, profile: profileName, json: *jsonFlag, out: os.Stdout}
	runErr := c.run(ctx, args)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		if errors.Is(runErr, errUsage) {
			printUsage()
		}
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                          Show session state")
	fmt.Fprintln(os.Stderr, "  login <name> [avatar]           Create an account and log in")
	fmt.Fprintln(os.Stderr, "  logout                          Log out and erase local data")
	fmt.Fprintln(os.Stderr, "  profile [--name n] [--status s] [--phone p] [--avatar i]")
	fmt.Fprintln(os.Stderr, "                                  Show or edit the profile")
	fmt.Fprintln(os.Stderr, "  profile qr [--png file]         Show the profile QR code")
	fmt.Fprintln(os.Stderr, "  chats                           List chats")
	fmt.Fprintln(os.Stderr, "  messages <chatId>               Show a chat's history")
	fmt.Fprintln(os.Stderr, "  send <chatId> <text>            Send a message and wait for delivery")
	fmt.Fprintln(os.Stderr, "  new-chat <contactId|card-uri>   Open a chat with a contact")
	fmt.Fprintln(os.Stderr, "  new-group <name> <contactId>... Create a group")
	fmt.Fprintln(os.Stderr, "  read <chatId>                   Mark a chat as read")
	fmt.Fprintln(os.Stderr, "  delete <chatId>                 Delete a chat and its history")
	fmt.Fprintln(os.Stderr, "  contacts [query]                List or search contacts")
	fmt.Fprintln(os.Stderr, "  calls                           Show the call log")
	fmt.Fprintln(os.Stderr, "  statuses                        Show active statuses")
	fmt.Fprintln(os.Stderr, "  profiles                        List profiles on this machine")
}
