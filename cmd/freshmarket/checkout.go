package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/checkout"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/spf13/cobra"
)

type checkoutFlags struct {
	method string
	branch string
	slot   string
	card   model.Card
}

func (c *cli) checkoutCmd() *cobra.Command {
	var f checkoutFlags
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setUp(cmd); err != nil {
				return err
			}
			return c.app.Cart.Hydrate(cmd.Context())
		},
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return c.runCheckout(cmd, f)
		}),
	}
	cmd.Flags().StringVar(&f.method, "method", "delivery", "delivery | pickup")
	cmd.Flags().StringVar(&f.branch, "branch", "", "branch id (required for pickup, selects delivery slots otherwise)")
	cmd.Flags().StringVar(&f.slot, "slot", "", "delivery slot id")
	cmd.Flags().StringVar(&f.card.Number, "card", "", "card number")
	cmd.Flags().StringVar(&f.card.Expiry, "expiry", "", "card expiry MM/YY")
	cmd.Flags().StringVar(&f.card.CVV, "cvv", "", "card cvv")
	cmd.Flags().StringVar(&f.card.HolderName, "holder", "", "card holder name")
	return cmd
}

func (c *cli) runCheckout(cmd *cobra.Command, f checkoutFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if !c.app.Session.IsAuthenticated(ctx) {
		c.app.Navigator.Navigate(constants.RouteLogin, nil)
		return apperror.New(apperror.LoginRequiredCode, "")
	}
	if c.app.Cart.Count() == 0 {
		return apperror.New(apperror.ValidationErrorCode, "Your cart is empty.")
	}

	co := c.app.NewCheckout()
	if err := co.SetAuthenticated(ctx, true); err != nil {
		return err
	}

	method := model.FulfillmentMethod(strings.ToUpper(f.method))
	if err := co.SelectMethod(ctx, method); err != nil {
		return err
	}
	if f.branch != "" {
		if err := co.SelectBranch(ctx, f.branch); err != nil {
			return err
		}
	}
	if err := co.Next(); err != nil {
		return err
	}

	if method == model.Delivery {
		if f.slot != "" {
			if err := co.SelectSlot(ctx, f.slot); err != nil {
				return err
			}
		} else if opts := co.State().SlotOptions; len(opts) > 0 {
			fmt.Fprintln(out, "Available slots (use --slot):")
			for _, o := range opts {
				fmt.Fprintf(out, "  %s  %s\n", o.ID, o.Label)
			}
		}
	}
	if err := co.Next(); err != nil {
		return err
	}

	printPreview(out, co.State())
	card := model.Card{
		Number:     checkout.FormatCardNumber(f.card.Number),
		Expiry:     checkout.FormatExpiry(f.card.Expiry),
		CVV:        checkout.FormatCVV(f.card.CVV),
		HolderName: f.card.HolderName,
	}
	fmt.Fprintf(out, "Paying with %s\n", checkout.MaskCardNumber(card.Number))

	snap, err := co.PlaceOrder(ctx, c.app.PaymentService, card)
	if err != nil {
		// 停在付款步驟，購物車不動，可以直接重跑
		if msg := co.State().Error; msg != "" {
			fmt.Fprintf(out, "Payment step: %s\n", msg)
		}
		return err
	}
	printSnapshot(out, snap)
	return nil
}

func printPreview(out io.Writer, s checkout.State) {
	if s.Preview == nil {
		return
	}
	p := s.Preview
	fmt.Fprintf(out, "Subtotal      %s\n", money(p.Subtotal))
	fmt.Fprintf(out, "Delivery fee  %s\n", money(p.DeliveryFee))
	if !p.Discount.IsZero() {
		fmt.Fprintf(out, "Discount     -%s\n", money(p.Discount))
	}
	fmt.Fprintf(out, "Total         %s\n", money(p.Total))
	for _, m := range p.MissingItems {
		fmt.Fprintf(out, "  ! %s: only %d of %d available\n", m.ProductID, m.AvailableQuantity, m.RequestedQuantity)
	}
}

func printSnapshot(out io.Writer, snap *model.OrderSuccessSnapshot) {
	fmt.Fprintf(out, "Order %s placed\n", snap.OrderNumber)
	for _, it := range snap.Items {
		fmt.Fprintf(out, "  %d x %s  %s\n", it.Quantity, it.Name, money(it.LineTotal()))
	}
	fmt.Fprintf(out, "%s\n", snap.Fulfillment)
	fmt.Fprintf(out, "Total %s\n", money(snap.Total))
}
