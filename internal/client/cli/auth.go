package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
)

// getSimpleText, getMultiline, getList and getPassword are indirections
// used to facilitate testing. They point to interactive input helpers and
// can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getMultiline  = GetMultiline
	getList       = GetList
	getPassword   = GetPassword
)

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register prompts the user for an email and password and creates a new
// account. It does not log the user in.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	if err := a.api.Register(ctx, email, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success! You can log in now.")
	return nil
}

// Login prompts for credentials, signs in and starts following the flow
// selected by the server.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	callCtx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	if err := a.api.Login(callCtx, email, string(password)); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	log.Printf("Login successful")
	a.userName = email
	a.pendingProfileImage = ""
	a.startFlowWatcher(ctx)
	return nil
}

// Logout ends the server session and stops the flow watcher. Local state is
// cleared even when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	a.stopFlowWatcher()

	callCtx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	err := a.api.Logout(callCtx)

	a.userName = ""
	a.pendingProfileImage = ""
	a.setFlow(FlowAuth)
	return err
}
