package main

import (
	"fmt"

	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/spf13/cobra"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	var remember bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			u, err := c.app.AuthService.Login(cmd.Context(), email, password, remember)
			if err != nil {
				return err
			}
			// 登入後改用後端購物車
			if err := c.app.Cart.Hydrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.FullName, u.Role)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&remember, "remember", false, "keep the session after restart")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var req model.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			u, err := c.app.AuthService.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", u.FullName)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored tokens",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if err := c.app.AuthService.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		}),
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if !c.app.Session.IsAuthenticated(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			u, err := c.app.AuthService.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s\n", u.FullName, u.Email, u.Role)
			return nil
		}),
	}
}

func (c *cli) addressesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "List saved addresses",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			list, err := c.app.AuthService.Addresses(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "LABEL", "ADDRESS", "DEFAULT")
			for _, a := range list {
				w.row(a.ID, a.Label, a.Street+", "+a.City+" "+a.Zip, a.IsDefault)
			}
			return w.flush()
		}),
	}

	var addr model.Address
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a new address",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			a, err := c.app.AuthService.AddAddress(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved address %s\n", a.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&addr.Label, "label", "Home", "label")
	add.Flags().StringVar(&addr.Street, "street", "", "street")
	add.Flags().StringVar(&addr.City, "city", "", "city")
	add.Flags().StringVar(&addr.Zip, "zip", "", "zip code")
	add.Flags().BoolVar(&addr.IsDefault, "default", false, "make default")
	cmd.AddCommand(add)
	return cmd
}
