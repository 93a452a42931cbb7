package commands

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ghettovoice/sipua/ua"
)

func validateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and print the effective agent settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			expires := cfg.Expires
			if expires == 0 {
				expires = ua.DefaultExpires
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "target:      %s\n", cfg.Target)
			fmt.Fprintf(w, "registrar:   %s\n", cfg.Target.RegistrarURI())
			fmt.Fprintf(w, "contact:     %s\n", cfg.Contact)
			fmt.Fprintf(w, "username:    %s\n", cfg.Username)
			fmt.Fprintf(w, "expires:     %s\n", expires)
			fmt.Fprintf(w, "mwi:         %t\n", cfg.MWIEnabled)
			fmt.Fprintf(w, "timings:     register_retry=%s subscribe_retry=%s subscription_expires=%s\n",
				cfg.Timings.RegisterRetry(), cfg.Timings.SubscribeRetry(), cfg.Timings.SubscriptionExpires())

			reg := prometheus.NewRegistry()
			cfg.Metrics(reg)
			mfs, err := reg.Gather()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(mfs))
			for _, mf := range mfs {
				names = append(names, mf.GetName())
			}
			fmt.Fprintf(w, "metrics:     %s\n", strings.Join(names, " "))
			return nil
		},
	}
}
