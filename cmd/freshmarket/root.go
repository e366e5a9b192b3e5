package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/appcontext"
	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/config"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// cli 每個指令共用的狀態，app 在 PersistentPreRunE 建立
type cli struct {
	configPath string
	app        *appcontext.ApplicationContext
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "freshmarket",
		Short:         "FreshMarket storefront client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["standalone"] == "true" {
				return nil
			}
			return c.setUp(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return c.app.Shutdown(ctx)
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.env or yaml), overrides "+config.ConfigPathEnv)

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.addressesCmd(),
		c.catalogCmd(),
		c.branchesCmd(),
		c.slotsCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.ordersCmd(),
		c.opsCmd(),
		c.adminCmd(),
		c.mockServerCmd(),
	)
	return root
}

func (c *cli) loadConfig() *config.Config {
	if c.configPath != "" {
		os.Setenv(config.ConfigPathEnv, c.configPath)
	}
	return config.GetConfig()
}

func (c *cli) setUp(cmd *cobra.Command) error {
	app, err := appcontext.NewApplicationContext(c.loadConfig(),
		appcontext.WithOutput(cmd.OutOrStdout()),
		appcontext.WithLogOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

// run 錯誤一律轉成使用者可讀的訊息
func run(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", apperror.UserMessage(err))
			return err
		}
		return nil
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
