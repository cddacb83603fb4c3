// Command atelier is the user-facing CLI for the style-transfer
// service: sign in, submit transfers, watch jobs, and browse the
// gallery.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/artmixer/atelier/config"
	"github.com/artmixer/atelier/internal/bootstrap"
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
		"login": {
			name:        "login",
			description: "Sign in with email+password or the master password",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Discard the persisted session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the current session identity",
			run:         runWhoami,
		},
		"submit": {
			name:        "submit",
			description: "Submit a style transfer and watch it to completion",
			run:         runSubmit,
		},
		"watch": {
			name:        "watch",
			description: "Watch an existing job until it reaches a terminal state",
			run:         runWatch,
		},
		"gallery-list": {
			name:        "gallery-list",
			description: "List gallery results with preset filter and sort order",
			run:         runGalleryList,
		},
		"gallery-show": {
			name:        "gallery-show",
			description: "Show one gallery result in detail",
			run:         runGalleryShow,
		},
		"gallery-delete": {
			name:        "gallery-delete",
			description: "Delete a gallery result (requires a session)",
			run:         runGalleryDelete,
		},
		"gallery-query": {
			name:        "gallery-query",
			description: "Evaluate a JMESPath expression against the raw gallery JSON",
			run:         runGalleryQuery,
		},
		"request-access": {
			name:        "request-access",
			description: "File a public access request for review",
			run:         runRequestAccess,
		},
		"health": {
			name:        "health",
			description: "Check service liveness",
			run:         runHealth,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: atelier <command> [flags]\n\n"); err != nil {
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
