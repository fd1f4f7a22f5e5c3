package main

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/user"
)

// addUser updates or creates the active user.User of email.
func (cli *commandLine) addUser(email, role, firstName, lastName, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	exists := err == nil
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		usr = user.User{
			ID:        uuid.New().String(),
			Email:     email,
			FirstName: core.CleanString(firstName),
			LastName:  core.CleanString(lastName),
			CreatedAt: now,
		}
	}
	usr.Role = strings.ToUpper(core.CleanString(role))
	usr.Status = user.StatusActive
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
