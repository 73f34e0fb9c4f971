package main

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var uname, email, role string
	var superuser bool

	cmd := &cobra.Command{
		Use:   "adduser --username USERNAME --email EMAIL",
		Short: "Create a user or update an existing one. The password is prompted next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uname == "" || email == "" {
				return usage(cmd, args)
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if pwd == "" {
				return usage(cmd, args)
			}
			usr, err := cli.addUser(cmd.Context(), uname, email, pwd, role, superuser)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cli.out, "user %q saved (id %d)\n", usr.Username, usr.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "the user's username")
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	cmd.Flags().StringVar(&role, "role", "", "the user's role code")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant superuser and staff rights")
	return cmd
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, uname, email, pwd, role string, superuser bool) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: email})
	}
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return usr, err
	}
	if !exists {
		now := time.Now().UTC()
		usr = user.User{Username: uname, Email: email, CreatedAt: now}
	}
	if role != "" {
		usr.RoleCode = role
	}
	if superuser {
		usr.IsSuperuser = true
		usr.IsStaff = true
	}
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return usr, err
	}
	if exists {
		return cli.usrRepo.UpdateUser(ctx, usr)
	}
	return cli.usrRepo.CreateUser(ctx, usr)
}
