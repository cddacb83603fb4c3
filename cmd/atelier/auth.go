package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/artmixer/atelier/internal/session"
)

type loginOptions struct {
	Email    string
	Password string
	Master   bool
}

func parseLoginFlags(args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts loginOptions
	fs.StringVar(&opts.Email, "email", "", "Account email (omit with --master)")
	fs.StringVar(&opts.Password, "password", "", "Password (prompted when omitted)")
	fs.BoolVar(&opts.Master, "master", false, "Sign in with the master password")

	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}

	if opts.Password == "" {
		opts.Password, err = promptSecret("Password: ")
		if err != nil {
			return err
		}
	}

	creds := session.Credentials{Password: opts.Password}
	if opts.Master {
		creds.MasterPassword = opts.Password
	} else {
		creds.Email = opts.Email
	}

	identity, err := cmdCtx.App.Session.Login(cmdCtx.Ctx, creds)
	if err != nil {
		return err
	}

	if identity.IsAdmin {
		return writeln(os.Stdout, "Signed in with master access.")
	}
	email := ""
	if identity.Email != nil {
		email = *identity.Email
	}
	return writef(os.Stdout, "Signed in as %s.\n", email)
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	if err := cmdCtx.App.Session.Logout(cmdCtx.Ctx); err != nil {
		return err
	}
	return writeln(os.Stdout, "Signed out.")
}

func runWhoami(cmdCtx *commandContext, _ []string) error {
	identity, ok := cmdCtx.App.Session.Identity()
	if !ok {
		return writeln(os.Stdout, "Not signed in.")
	}
	if identity.IsAdmin {
		return writeln(os.Stdout, "Master session (admin).")
	}
	email := ""
	if identity.Email != nil {
		email = *identity.Email
	}
	return writef(os.Stdout, "%s\n", email)
}

type requestAccessOptions struct {
	Name   string
	Email  string
	Reason string
}

func parseRequestAccessFlags(args []string) (requestAccessOptions, error) {
	fs := flag.NewFlagSet("request-access", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts requestAccessOptions
	fs.StringVar(&opts.Name, "name", "", "Your name")
	fs.StringVar(&opts.Email, "email", "", "Contact email (required)")
	fs.StringVar(&opts.Reason, "reason", "", "Why you need access (required)")

	if err := fs.Parse(args); err != nil {
		return requestAccessOptions{}, err
	}
	return opts, nil
}

func runRequestAccess(cmdCtx *commandContext, args []string) error {
	opts, err := parseRequestAccessFlags(args)
	if err != nil {
		return err
	}

	id, err := cmdCtx.App.Admin.SubmitRequest(cmdCtx.Ctx, opts.Name, opts.Email, opts.Reason)
	if err != nil {
		return err
	}
	return writef(os.Stdout, "Request %s filed; an administrator will review it.\n", id)
}

func runHealth(cmdCtx *commandContext, _ []string) error {
	status, err := cmdCtx.App.Client.Health(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return writef(os.Stdout, "service status: %s\n", status)
}

func promptSecret(label string) (string, error) {
	if err := writef(os.Stderr, "%s", label); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
