package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghettovoice/sipua/ua"
)

func mwiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mwi",
		Short: "Message waiting indication helpers",
	}
	cmd.AddCommand(mwiParseCmd())
	return cmd
}

func mwiParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [FILE|-]",
		Short: "Parse an application/simple-message-summary body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				body []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			sum, err := ua.ParseMessageSummary(body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}
