package main

import (
	"fmt"
	"strconv"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/spf13/cobra"
)

func parseQty(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperror.Newf(apperror.ValidationErrorCode, "Quantity %q is not a number.", s)
	}
	return n, nil
}

func (c *cli) printCart(cmd *cobra.Command) error {
	items := c.app.Cart.Items()
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return nil
	}
	w := newTable(out, "ID", "NAME", "QTY", "PRICE", "LINE")
	for _, it := range items {
		w.row(it.ID, it.Name, it.Quantity, money(it.Price), money(it.LineTotal()))
	}
	if err := w.flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d items, total %s\n", c.app.Cart.Count(), money(c.app.Cart.Total()))
	return nil
}

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setUp(cmd); err != nil {
				return err
			}
			return c.app.Cart.Hydrate(cmd.Context())
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show cart contents",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return c.printCart(cmd)
		}),
	}

	add := &cobra.Command{
		Use:   "add <productId> [qty]",
		Short: "Add a product",
		Args:  cobra.RangeArgs(1, 2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := parseQty(args[1])
				if err != nil {
					return err
				}
				qty = n
			}
			p, err := c.app.CatalogService.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.app.Cart.AddItem(cmd.Context(), *p, qty); err != nil {
				return err
			}
			return c.printCart(cmd)
		}),
	}

	update := &cobra.Command{
		Use:   "update <productId> <qty>",
		Short: "Set the quantity of a line, 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			n, err := parseQty(args[1])
			if err != nil {
				return err
			}
			if err := c.app.Cart.UpdateQuantity(cmd.Context(), args[0], n); err != nil {
				return err
			}
			return c.printCart(cmd)
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if err := c.app.Cart.RemoveItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.printCart(cmd)
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if err := c.app.Cart.ClearCart(cmd.Context()); err != nil {
				return err
			}
			return c.printCart(cmd)
		}),
	}

	cmd.AddCommand(show, add, update, remove, clearCmd)
	return cmd
}
