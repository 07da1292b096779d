package main

import (
	"context"
	"fmt"
	"time"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, role, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	if !core.IsValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username:  uname,
			Name:      uname,
			CreatedAt: time.Now().UTC(),
		}
	}
	usr.Email = email
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
