package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghettovoice/sipua/dns"
)

func locateCmd() *cobra.Command {
	var (
		transport  string
		nameServer string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "locate HOST",
		Short: "Resolve registrar targets of the host (RFC 3263)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &dns.Resolver{NameServer: nameServer, Timeout: timeout}
			tgts, err := r.LocateRegistrar(cmd.Context(), args[0], transport)
			if err != nil {
				return err
			}
			for _, tgt := range tgts {
				fmt.Fprintln(cmd.OutOrStdout(), tgt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "", "transport: udp, tcp or tls (default chosen by NAPTR)")
	cmd.Flags().StringVar(&nameServer, "nameserver", "", "DNS server for NAPTR queries (default from resolv.conf)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "NAPTR query timeout")
	return cmd
}
