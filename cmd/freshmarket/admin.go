package main

import (
	"fmt"
	"strconv"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type productFlags struct {
	in    model.ProductInput
	price string
	stock int
}

func (f *productFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.Name, "name", "", "product name")
	cmd.Flags().StringVar(&f.in.Description, "description", "", "description")
	cmd.Flags().StringVar(&f.price, "price", "", "price, e.g. 2.49")
	cmd.Flags().StringVar(&f.in.Unit, "unit", "", "unit")
	cmd.Flags().StringVar(&f.in.Image, "image", "", "image url")
	cmd.Flags().StringVar(&f.in.CategoryID, "category", "", "category id")
	cmd.Flags().IntVar(&f.stock, "stock", -1, "available quantity")
}

// input 只送出有設定的欄位
func (f *productFlags) input() (model.ProductInput, error) {
	in := f.in
	if f.price != "" {
		p, err := decimal.NewFromString(f.price)
		if err != nil {
			return in, apperror.Newf(apperror.ValidationErrorCode, "Price %q is not a number.", f.price)
		}
		in.Price = &p
	}
	if f.stock >= 0 {
		s := f.stock
		in.AvailableQuantity = &s
	}
	return in, nil
}

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Product administration (admin only)"}

	var create productFlags
	createCmd := &cobra.Command{
		Use:   "product-create",
		Short: "Create a product",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			in, err := create.input()
			if err != nil {
				return err
			}
			p, err := c.app.AdminService.CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", p.ID, p.Name)
			return nil
		}),
	}
	create.bind(createCmd)

	var update productFlags
	updateCmd := &cobra.Command{
		Use:   "product-update <productId>",
		Short: "Update a product",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			in, err := update.input()
			if err != nil {
				return err
			}
			p, err := c.app.AdminService.UpdateProduct(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s %s\n", p.ID, p.Name, money(p.Price))
			return nil
		}),
	}
	update.bind(updateCmd)

	activeCmd := &cobra.Command{
		Use:   "product-active <productId> <true|false>",
		Short: "Show or hide a product",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return apperror.Newf(apperror.ValidationErrorCode, "%q is not true or false.", args[1])
			}
			p, err := c.app.AdminService.SetProductActive(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t\n", p.ID, p.IsActive)
			return nil
		}),
	}

	cmd.AddCommand(createCmd, updateCmd, activeCmd)
	return cmd
}
