package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if flow := a.currentFlow(); flow != "" {
		s = s + flow
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to TravelBuddy CLI (type 'help' for commands)")

	pingCtx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	if err := a.api.Ping(pingCtx); err != nil {
		log.Printf("Server unavailable: %v", err)
	}
	cancel()

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
