package cli

import (
	"errors"
	"time"

	"github.com/shandysiswandi/mfacore/internal/pkg/otp"
	"github.com/spf13/cobra"
)

var errEmptySecret = errors.New("secret decodes to no key bytes")

// newCodeCmd prints the current authenticator code for a Base32 secret. It
// needs no configuration and is meant for testing enrollments by hand.
func newCodeCmd(c *cli) *cobra.Command {
	var (
		secret string
		at     int64
		period time.Duration
	)

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Print the authenticator code for a secret",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			key := otp.DecodeBase32(secret)
			if len(key) == 0 {
				return errEmptySecret
			}

			totp, err := otp.NewTOTP(period, 0)
			if err != nil {
				return err
			}

			now := time.Now()
			if at > 0 {
				now = time.Unix(at, 0)
			}

			code, err := totp.Generate(key, now)
			if err != nil {
				return err
			}
			remaining := period - time.Duration(now.UnixNano()%int64(period))

			return c.print(struct {
				Code      string `json:"code"`
				Step      int64  `json:"step"`
				ExpiresIn int64  `json:"expires_in_seconds"`
			}{code, totp.Step(now), int64(remaining.Seconds())},
				field{"code", code},
				field{"expires in", remaining.Round(time.Second)},
			)
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Base32 shared secret")
	cmd.Flags().Int64Var(&at, "at", 0, "unix time to generate for (default now)")
	cmd.Flags().DurationVar(&period, "period", otp.DefaultPeriod, "time step")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}
