package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
	"github.com/masomo/dashboard/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("nothing to migrate: the in-memory store has no schema")
)

type commandLine struct {
	db         *sqlx.DB // nil for the in-memory store
	svc        *identity.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL -role admin|teacher|student [-name NAME] - create a user")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  migrate - apply the database schema")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "", "One of admin, teacher or student.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := promptNewPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(identity.NewUser{
			Name:            *addUserName,
			Username:        *addUserUname,
			Email:           *addUserEmail,
			Role:            identity.Role(*addUserRole),
			Password:        pwd,
			PasswordConfirm: confirm,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, string(pwd))
	case "migrate":
		if cli.db == nil {
			return errNoDatabase
		}
		return migrateFunc(context.Background(), cli.db)
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptNewPassword() (pwd, confirm string, err error) {
	fmt.Print("Enter password:")
	p, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil || len(p) == 0 {
		return "", "", err
	}
	fmt.Print("Confirm password:")
	c, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	return string(p), string(c), nil
}

func (cli *commandLine) addUser(nu identity.NewUser) error {
	if err := nu.Validate(cli.validate, cli.svc); err != nil {
		return errors.New(core.TranslateFirst(err, cli.translator))
	}
	usr, err := cli.svc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %q (%s)\n", usr.Role, usr.Username, usr.ID)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.svc.SetPassword(ctx, usr, pwd)
	return err
}
