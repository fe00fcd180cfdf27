package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/user"
)

var errInvalidRole = errors.New("role must be one of manager, technician")

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	role = core.CleanString(role, true /* lower */)
	if role != user.RoleManager && role != user.RoleTechnician {
		return errInvalidRole
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{Email: email, Name: email}
	}
	if name != "" {
		usr.Name = name
	}
	usr.Role = role
	usr.IsActive = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	if err != nil {
		return err
	}
	fmt.Printf("user %s (%s) saved\n", usr.Email, usr.Role)
	return nil
}
