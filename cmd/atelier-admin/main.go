// Command atelier-admin reviews access requests and manages user
// accounts. Every command needs a master session; sign in first with
// "atelier login --master".
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/artmixer/atelier/config"
	"github.com/artmixer/atelier/internal/bootstrap"
	"github.com/artmixer/atelier/internal/domain"
	apperrors "github.com/artmixer/atelier/internal/errors"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	App    *bootstrap.App
}

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger := bootstrap.InitLogger(cfg.IsDev)

	if len(os.Args) < 2 {
		if usageErr := printUsage(); usageErr != nil {
			logger.Error("print usage failed", "error", usageErr)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if writeErr := writef(os.Stderr, "unknown command %q\n\n", cmdName); writeErr != nil {
			logger.Error("print unknown command message failed", "error", writeErr)
		}
		if usageErr := printUsage(); usageErr != nil {
			logger.Error("print usage failed", "error", usageErr)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	ctx := context.Background()
	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "initialize", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal initialization failure to shell scripts
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Warn("close failed", "error", closeErr)
		}
	}()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		App:    app,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		if writeErr := writeln(os.Stderr, apperrors.UserMessage(runErr)); writeErr != nil {
			logger.Error("print error message failed", "error", writeErr)
		}
		logger.DebugContext(ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"requests-list": {
			name:        "requests-list",
			description: "List access requests and their review state",
			run:         runRequestsList,
		},
		"approve": {
			name:        "approve",
			description: "Approve a pending access request",
			run:         runApprove,
		},
		"reject": {
			name:        "reject",
			description: "Reject a pending access request with a reason",
			run:         runReject,
		},
		"request-delete": {
			name:        "request-delete",
			description: "Delete an access request record",
			run:         runRequestDelete,
		},
		"users-list": {
			name:        "users-list",
			description: "List provisioned user accounts",
			run:         runUsersList,
		},
		"user-create": {
			name:        "user-create",
			description: "Provision a user account directly",
			run:         runUserCreate,
		},
		"user-delete": {
			name:        "user-delete",
			description: "Delete a user account",
			run:         runUserDelete,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: atelier-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(os.Stdout, "  %-16s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func runRequestsList(cmdCtx *commandContext, _ []string) error {
	requests, err := cmdCtx.App.Admin.ListRequests(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return writeln(os.Stdout, "No requests.")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if headerErr := writeln(tw, "ID\tNAME\tEMAIL\tSTATUS\tREVIEWED\tREASON"); headerErr != nil {
		return headerErr
	}
	for _, req := range requests {
		reviewed := ""
		if req.ReviewedAt != nil {
			reviewed = *req.ReviewedAt
		}
		reason := req.Reason
		if req.Status == domain.RequestStatusRejected && req.RejectionReason != "" {
			reason = req.RejectionReason
		}
		if rowErr := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			req.ID, req.Name, req.Email, req.Status, reviewed, reason); rowErr != nil {
			return rowErr
		}
	}
	return tw.Flush()
}

type requestIDOptions struct {
	ID string
}

func parseRequestIDFlags(name string, args []string) (requestIDOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts requestIDOptions
	fs.StringVar(&opts.ID, "id", "", "Request id (required)")

	if err := fs.Parse(args); err != nil {
		return requestIDOptions{}, err
	}
	return opts, nil
}

func runApprove(cmdCtx *commandContext, args []string) error {
	opts, err := parseRequestIDFlags("approve", args)
	if err != nil {
		return err
	}
	if err := cmdCtx.App.Admin.Approve(cmdCtx.Ctx, opts.ID); err != nil {
		return err
	}
	return writef(os.Stdout, "approved %s\n", opts.ID)
}

type rejectOptions struct {
	ID     string
	Reason string
}

func parseRejectFlags(args []string) (rejectOptions, error) {
	fs := flag.NewFlagSet("reject", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts rejectOptions
	fs.StringVar(&opts.ID, "id", "", "Request id (required)")
	fs.StringVar(&opts.Reason, "reason", "", "Reason shown to the requester")

	if err := fs.Parse(args); err != nil {
		return rejectOptions{}, err
	}
	return opts, nil
}

func runReject(cmdCtx *commandContext, args []string) error {
	opts, err := parseRejectFlags(args)
	if err != nil {
		return err
	}
	if err := cmdCtx.App.Admin.Reject(cmdCtx.Ctx, opts.ID, opts.Reason); err != nil {
		return err
	}
	return writef(os.Stdout, "rejected %s\n", opts.ID)
}

func runRequestDelete(cmdCtx *commandContext, args []string) error {
	opts, err := parseRequestIDFlags("request-delete", args)
	if err != nil {
		return err
	}
	if err := cmdCtx.App.Admin.DeleteRequest(cmdCtx.Ctx, opts.ID); err != nil {
		return err
	}
	return writef(os.Stdout, "deleted %s\n", opts.ID)
}

func runUsersList(cmdCtx *commandContext, _ []string) error {
	users, err := cmdCtx.App.Admin.ListUsers(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return writeln(os.Stdout, "No users.")
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	for _, user := range users {
		if rowErr := writeln(os.Stdout, user.Email); rowErr != nil {
			return rowErr
		}
	}
	return nil
}

type userCreateOptions struct {
	Email    string
	Password string
}

func parseUserCreateFlags(args []string) (userCreateOptions, error) {
	fs := flag.NewFlagSet("user-create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts userCreateOptions
	fs.StringVar(&opts.Email, "email", "", "Account email (required)")
	fs.StringVar(&opts.Password, "password", "", "Initial password (required)")

	if err := fs.Parse(args); err != nil {
		return userCreateOptions{}, err
	}
	return opts, nil
}

func runUserCreate(cmdCtx *commandContext, args []string) error {
	opts, err := parseUserCreateFlags(args)
	if err != nil {
		return err
	}
	if err := cmdCtx.App.Admin.CreateUser(cmdCtx.Ctx, opts.Email, opts.Password); err != nil {
		return err
	}
	return writef(os.Stdout, "created %s\n", opts.Email)
}

type userDeleteOptions struct {
	Email string
}

func parseUserDeleteFlags(args []string) (userDeleteOptions, error) {
	fs := flag.NewFlagSet("user-delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts userDeleteOptions
	fs.StringVar(&opts.Email, "email", "", "Account email (required)")

	if err := fs.Parse(args); err != nil {
		return userDeleteOptions{}, err
	}
	return opts, nil
}

func runUserDelete(cmdCtx *commandContext, args []string) error {
	opts, err := parseUserDeleteFlags(args)
	if err != nil {
		return err
	}
	if err := cmdCtx.App.Admin.DeleteUser(cmdCtx.Ctx, opts.Email); err != nil {
		return err
	}
	return writef(os.Stdout, "deleted %s\n", opts.Email)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
