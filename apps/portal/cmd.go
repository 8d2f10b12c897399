package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/masomo/dashboard/core/identity"
	"github.com/masomo/dashboard/core/policy"
	"github.com/masomo/dashboard/core/session"
	"github.com/masomo/dashboard/services/restclient"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errDenied      = errors.New("permission denied")
	errNotLoggedIn = errors.New("not logged in")
)

type commandLine struct {
	mgr    *session.Manager
	client *restclient.Client
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL [-password PASSWORD] - start a session (password prompted when omitted)")
	fmt.Fprintln(cli.out, "  logout - end the session")
	fmt.Fprintln(cli.out, "  whoami - show the current user")
	fmt.Fprintln(cli.out, "  menu - list the dashboard sections available to the current user")
	fmt.Fprintln(cli.out, "  can -capability NAME - exit 0 when the current user holds NAME")
	fmt.Fprintln(cli.out, "  capabilities [-remote] - list the current user's capabilities")
	fmt.Fprintln(cli.out, "  profile [-name NAME] [-username USERNAME] [-email EMAIL] - update the current user's profile")
	fmt.Fprintln(cli.out, "  refresh - exchange the session token for a fresh one")
	fmt.Fprintln(cli.out, "  health - check the API")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "The account email.")
	loginPwd := loginCmd.String("password", "", "The account password. Prompted when omitted.")

	canCmd := flag.NewFlagSet("can", flag.ContinueOnError)
	canCapability := canCmd.String("capability", "", "A capability name, e.g. manage_news.")

	capsCmd := flag.NewFlagSet("capabilities", flag.ContinueOnError)
	capsRemote := capsCmd.Bool("remote", false, "Ask the API instead of the local policy.")

	profileCmd := flag.NewFlagSet("profile", flag.ContinueOnError)
	profileName := profileCmd.String("name", "", "New full name.")
	profileUname := profileCmd.String("username", "", "New username.")
	profileEmail := profileCmd.String("email", "", "New email.")

	for _, fs := range []*flag.FlagSet{loginCmd, canCmd, capsCmd, profileCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd := *loginPwd
		if pwd == "" {
			fmt.Fprint(cli.out, "Enter password:")
			b, err := readPasswordFunc(syscall.Stdin)
			fmt.Fprintln(cli.out)
			if err != nil {
				return err
			}
			pwd = string(b)
		}
		return cli.login(ctx, *loginEmail, pwd)
	case "logout":
		cli.mgr.Logout()
		fmt.Fprintln(cli.out, "logged out")
		return nil
	case "whoami":
		cli.whoami()
		return nil
	case "menu":
		for _, name := range visibleViews(cli.mgr) {
			fmt.Fprintln(cli.out, name)
		}
		return nil
	case "can":
		if err := canCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *canCapability == "" {
			canCmd.Usage()
			return errHelp
		}
		return cli.can(*canCapability)
	case "capabilities":
		if err := capsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.capabilities(ctx, *capsRemote)
	case "profile":
		if err := profileCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *profileName == "" && *profileUname == "" && *profileEmail == "" {
			profileCmd.Usage()
			return errHelp
		}
		return cli.updateProfile(ctx, identity.UpdateProfile{Name: *profileName, Username: *profileUname, Email: *profileEmail})
	case "refresh":
		return cli.refresh(ctx)
	case "health":
		if !cli.client.Health(ctx) {
			return errors.New("API unreachable")
		}
		fmt.Fprintln(cli.out, "ok")
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	res := cli.mgr.Login(ctx, email, pwd)
	if !res.Success {
		return errors.New(res.Error)
	}
	cli.whoami()
	return nil
}

func (cli *commandLine) whoami() {
	ident, ok := cli.mgr.CurrentIdentity()
	if !ok {
		fmt.Fprintln(cli.out, "anonymous")
		return
	}
	fmt.Fprintf(cli.out, "%s <%s> %s\n", ident.Username, ident.Email, ident.Role)
}

func (cli *commandLine) can(name string) error {
	c, ok := policy.ParseCapability(name)
	if !ok {
		return fmt.Errorf("unknown capability %q", name)
	}
	if !cli.mgr.HasCapability(c) {
		fmt.Fprintln(cli.out, "no")
		return errDenied
	}
	fmt.Fprintln(cli.out, "yes")
	return nil
}

func (cli *commandLine) capabilities(ctx context.Context, remote bool) error {
	caps := cli.mgr.Capabilities()
	if remote {
		token, ok := cli.mgr.Credential()
		if !ok {
			return errNotLoggedIn
		}
		set, err := cli.client.Capabilities(ctx, token)
		if err != nil {
			return err
		}
		caps = set.Capabilities
	}
	for _, c := range caps {
		fmt.Fprintln(cli.out, c)
	}
	return nil
}

func (cli *commandLine) updateProfile(ctx context.Context, up identity.UpdateProfile) error {
	token, ok := cli.mgr.Credential()
	if !ok {
		return errNotLoggedIn
	}
	if err := cli.client.UpdateProfile(ctx, token, up); err != nil {
		return fmt.Errorf("profile not updated: %v", err)
	}
	if err := cli.mgr.ReloadIdentity(ctx); err != nil {
		return err
	}
	cli.whoami()
	return nil
}

func (cli *commandLine) refresh(ctx context.Context) error {
	token, ok := cli.mgr.Credential()
	if !ok {
		return errNotLoggedIn
	}
	fresh, err := cli.client.RefreshToken(ctx, token)
	if err != nil {
		return err
	}
	if err := cli.mgr.RotateCredential(ctx, fresh); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "token refreshed")
	return nil
}
