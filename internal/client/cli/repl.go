package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	currentFlow() string
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ShowProfile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Verify(ctx context.Context) error
	Reset(ctx context.Context) error
}

// commands available per flow. An empty flow means the first push has not
// arrived yet, only logout is safe then.
var flowCommands = map[string][]string{
	FlowAuth:            {"register", "login"},
	FlowProfileCreation: {"profile", "editprofile", "upload", "status", "verify", "reset", "logout"},
	FlowMain:            {"profile", "editprofile", "upload", "status", "verify", "reset", "logout"},
	"":                  {"logout"},
}

func allowed(flow, cmd string) bool {
	for _, c := range flowCommands[flow] {
		if c == cmd {
			return true
		}
	}
	return false
}

// runREPL starts a simple read-eval-print loop for the travelbuddy CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a' when the command belongs to the
// current flow. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
//	auth:
//	  - register        create an account
//	  - login           authenticate
//
//	profile_creation, main:
//	  - profile         show the profile
//	  - editprofile     create or edit the profile
//	  - upload profile [path]
//	  - upload id|selfie [path]  add an image to the verification attempt
//	  - status          show the verification attempt
//	  - verify          submit the attempt
//	  - reset           drop the attempt and its images
//	  - logout
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tb> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		flow := a.currentFlow()

		switch cmd {
		case "help":
			printlnFn(fmt.Sprintf("Available commands: %s, exit", strings.Join(flowCommands[flow], ", ")))
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if _, known := commandHandlers[cmd]; !known {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if !allowed(flow, cmd) {
			printlnFn(fmt.Sprintf("Command %q is not available now, type 'help'", cmd))
			continue
		}
		if err := commandHandlers[cmd](ctx, a, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

var commandHandlers = map[string]func(context.Context, execIface, []string) error{
	"register":    func(ctx context.Context, a execIface, _ []string) error { return a.Register(ctx) },
	"login":       func(ctx context.Context, a execIface, _ []string) error { return a.Login(ctx) },
	"logout":      func(ctx context.Context, a execIface, _ []string) error { return a.Logout(ctx) },
	"profile":     func(ctx context.Context, a execIface, _ []string) error { return a.ShowProfile(ctx) },
	"editprofile": func(ctx context.Context, a execIface, _ []string) error { return a.EditProfile(ctx) },
	"upload":      func(ctx context.Context, a execIface, args []string) error { return a.Upload(ctx, args) },
	"status":      func(ctx context.Context, a execIface, _ []string) error { return a.Status(ctx) },
	"verify":      func(ctx context.Context, a execIface, _ []string) error { return a.Verify(ctx) },
	"reset":       func(ctx context.Context, a execIface, _ []string) error { return a.Reset(ctx) },
}
