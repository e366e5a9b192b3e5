package main

import (
	"fmt"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/checkout"
	"github.com/spf13/cobra"
)

func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Order history"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List my orders",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			orders, err := c.app.OrderService.ListOrders(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "NUMBER", "STATUS", "TYPE", "TOTAL", "CREATED")
			for _, o := range orders {
				w.row(o.ID, o.OrderNumber, o.Status, o.FulfillmentType, money(o.Total), o.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.flush()
		}),
	}

	show := &cobra.Command{
		Use:   "show <orderId>",
		Short: "Show order details",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			o, err := c.app.OrderService.GetOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  %s\n", o.OrderNumber, o.Status, o.FulfillmentType)
			for _, it := range o.Items {
				fmt.Fprintf(out, "  %d x %s  %s\n", it.Quantity, it.Name, money(it.Price))
			}
			fmt.Fprintf(out, "Subtotal %s  Delivery %s  Total %s\n", money(o.Subtotal), money(o.DeliveryFee), money(o.Total))
			return nil
		}),
	}

	cancel := &cobra.Command{
		Use:   "cancel <orderId>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			o, err := c.app.OrderService.CancelOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is %s\n", o.OrderNumber, o.Status)
			return nil
		}),
	}

	// 成功頁重新整理：只讀本地快照
	success := &cobra.Command{
		Use:   "success <orderId>",
		Short: "Show the saved order confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			snap, ok, err := checkout.LoadOrderSuccess(cmd.Context(), c.app.DurableScope, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return apperror.New(apperror.NotFoundCode, "No saved confirmation for this order.")
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		}),
	}

	cmd.AddCommand(list, show, cancel, success)
	return cmd
}
