// Command sipua is a toolbox around the SIP registration and MWI agent.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ghettovoice/sipua/cmd/sipua/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
