package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gamegscore/apiclient"
	"gamegscore/utils"
	"gamegscore/viewstate"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session is what every subcommand works with
type session struct {
	client     *apiclient.Client
	controller *viewstate.Controller
	owner      uint
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GAMEG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	sess := &session{}
	root := &cobra.Command{
		Use:          "gamegcli",
		Short:        "GameG Score from the terminal",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.InitLogger(v.GetString("log-level"), "", false)
			utils.Log.SetOutput(os.Stderr)

			opts := []apiclient.Option{apiclient.WithTimeout(v.GetDuration("timeout"))}
			if token := v.GetString("token"); token != "" {
				opts = append(opts, apiclient.WithToken(token))
			}
			sess.client = apiclient.New(v.GetString("api"), opts...)
			sess.owner = v.GetUint("owner")

			controllerOpts := []viewstate.Option{
				viewstate.WithIdentity(viewstate.FixedOwner(sess.owner)),
				viewstate.WithLogger(utils.Log),
			}
			sess.controller = viewstate.New(sess.client, controllerOpts...)
		},
	}

	flags := root.PersistentFlags()
	flags.String("api", "http://localhost:8080", "API base URL")
	flags.Uint("owner", 1, "owner id used when no token is given")
	flags.String("token", "", "bearer token from login or admin create-user")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.String("log-level", "warn", "log level")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newStatusCmd(sess),
		newSearchCmd(sess),
		newShowCmd(sess),
		newRateCmd(sess),
		newProfileCmd(sess),
		newLoginCmd(sess),
		newAdminCmd(sess),
	)
	return root
}

func printf(cmd *cobra.Command, format string, a ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
