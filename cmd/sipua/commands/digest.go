package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghettovoice/sipua/sip"
)

type digestFlags struct {
	method    string
	uri       string
	challenge string
	proxy     bool
}

func digestCmd(root *rootFlags) *cobra.Command {
	var flags digestFlags

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Answer a digest challenge with the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), root)
			if err != nil {
				return err
			}
			creds := cfg.Credentials()
			if creds == nil {
				return errors.New("no password configured")
			}

			chal, err := sip.ParseChallenge(flags.challenge)
			if err != nil {
				return err
			}

			method := sip.RequestMethod(flags.method).ToUpper()
			uri := flags.uri
			if uri == "" {
				uri = cfg.Target.RegistrarURI()
			}
			req := &sip.Request{
				Method:     method,
				RequestURI: uri,
				From:       cfg.Target,
				To:         cfg.Target,
				CallID:     sip.GenerateCallID(),
				CSeq:       sip.CSeq{SeqNo: 1, Method: method},
			}
			if err := req.Validate(); err != nil {
				return err
			}

			sts, hdr := sip.ResponseStatusUnauthorized, "Authorization"
			if flags.proxy {
				sts, hdr = sip.ResponseStatusProxyAuthenticationRequired, "Proxy-Authorization"
			}
			res := sip.NewResponse(req, sts, "")
			if flags.proxy {
				res.ProxyAuthenticate = []*sip.Challenge{chal}
			} else {
				res.WWWAuthenticate = []*sip.Challenge{chal}
			}
			if err := creds.Authorize(req, res); err != nil {
				return err
			}

			auth := req.Authorization
			if flags.proxy {
				auth = req.ProxyAuthorization
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", hdr, auth)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.method, "method", string(sip.RequestMethodRegister), "request method")
	cmd.Flags().StringVar(&flags.uri, "uri", "", "request URI (default registrar URI of the target)")
	cmd.Flags().StringVar(&flags.challenge, "challenge", "", `challenge header value, e.g. 'Digest realm="example.com", nonce="abc"'`)
	cmd.Flags().BoolVar(&flags.proxy, "proxy", false, "answer a Proxy-Authenticate challenge")
	_ = cmd.MarkFlagRequired("challenge")
	return cmd
}
