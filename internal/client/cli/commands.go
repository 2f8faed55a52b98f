package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/shared"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

// Register prompts for the account fields and creates the account. The new
// token pair is kept, so the operator is logged in afterwards.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	req := pb.RegisterRequest{Email: email, Username: username, Password: string(password)}
	if fullName != "" {
		req.FullName = &fullName
	}

	if err := a.client.Register(ctx, req); err != nil {
		return err
	}

	a.email = email
	fmt.Fprintln(a.out, "Registered and logged in")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	if err := a.client.Login(ctx, email, string(password)); err != nil {
		return err
	}

	a.email = email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.email = ""
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) printUsers(users ...pb.UserResponse) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tUSERNAME\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Username, u.Role, u.IsActive)
	}
	tw.Flush()
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	a.printUsers(*u)
	return nil
}

// defaultPageSize is the limit sent when the users command gets none.
const defaultPageSize = 10

// Users lists accounts. Optional arguments are skip and limit.
func (a *App) Users(ctx context.Context, args []string) error {
	skip, limit := 0, defaultPageSize
	var err error

	if len(args) > 2 {
		return fmt.Errorf("%w: users [skip] [limit]", errUsage)
	}
	if len(args) > 0 {
		if skip, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("%w: users [skip] [limit]", errUsage)
		}
	}
	if len(args) > 1 {
		if limit, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: users [skip] [limit]", errUsage)
		}
	}

	users, err := a.client.ListUsers(ctx, skip, limit)
	if err != nil {
		return err
	}
	a.printUsers(users...)
	return nil
}

func (a *App) Deactivate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: deactivate <id>", errUsage)
	}
	if err := a.client.Deactivate(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "User deactivated")
	return nil
}
