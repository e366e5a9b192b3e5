package main

import (
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/spf13/cobra"
)

func printPicking(cmd *cobra.Command, po *model.PickingOrder) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  branch=%s\n", po.OrderNumber, po.Status, po.BranchID)
	for _, it := range po.Items {
		fmt.Fprintf(out, "  %s  %d x %s  [%s]\n", it.ID, it.Quantity, it.Name, it.PickedStatus)
	}
}

func (c *cli) opsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ops", Short: "Store operations (staff only)"}

	var status string
	picking := &cobra.Command{
		Use:   "picking",
		Short: "List orders to pick",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			orders, err := c.app.OpsService.ListPickingOrders(cmd.Context(), strings.ToUpper(status))
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to pick")
			}
			for i := range orders {
				printPicking(cmd, &orders[i])
			}
			return nil
		}),
	}
	picking.Flags().StringVar(&status, "status", "", "filter by order status")

	pick := &cobra.Command{
		Use:   "pick <orderId> <itemId> <PENDING|PICKED|MISSING|REPLACED>",
		Short: "Update the picked status of an item",
		Args:  cobra.ExactArgs(3),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			po, err := c.app.OpsService.UpdatePickStatus(cmd.Context(), args[0], args[1], model.PickedStatus(strings.ToUpper(args[2])))
			if err != nil {
				return err
			}
			printPicking(cmd, po)
			return nil
		}),
	}

	orderStatus := &cobra.Command{
		Use:   "status <orderId> <status>",
		Short: "Move an order to another status",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			po, err := c.app.OpsService.UpdateOrderStatus(cmd.Context(), args[0], strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			printPicking(cmd, po)
			return nil
		}),
	}

	var branch string
	inventory := &cobra.Command{
		Use:   "inventory",
		Short: "List inventory records",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			records, err := c.app.OpsService.ListInventory(cmd.Context(), branch)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "BRANCH", "PRODUCT", "AVAILABLE", "RESERVED")
			for _, r := range records {
				w.row(r.ID, r.BranchID, r.ProductName, r.AvailableQuantity, r.ReservedQuantity)
			}
			return w.flush()
		}),
	}
	inventory.Flags().StringVar(&branch, "branch", "", "branch id")

	adjust := &cobra.Command{
		Use:   "adjust <inventoryId> <availableQuantity>",
		Short: "Set available quantity",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			n, err := parseQty(args[1])
			if err != nil {
				return err
			}
			r, err := c.app.OpsService.AdjustInventory(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d available\n", r.ProductName, r.AvailableQuantity)
			return nil
		}),
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Today's numbers",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			s, err := c.app.OpsService.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "orders today: %d\npending picks: %d\nlow stock: %d\n", s.OrdersToday, s.PendingPicks, s.LowStockCount)
			return nil
		}),
	}

	cmd.AddCommand(picking, pick, orderStatus, inventory, adjust, stats)
	return cmd
}
