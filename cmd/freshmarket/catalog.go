package main

import (
	"fmt"

	"github.com/RoyceAzure/lab/freshmarket/internal/checkout"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/spf13/cobra"
)

func stock(p model.Product) string {
	if p.AvailableQuantity == nil {
		return "-"
	}
	if *p.AvailableQuantity == 0 {
		return "out of stock"
	}
	return fmt.Sprint(*p.AvailableQuantity)
}

func (c *cli) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Browse products"}

	var q model.ProductQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			products, err := c.app.CatalogService.ListProducts(cmd.Context(), q)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "NAME", "PRICE", "UNIT", "STOCK")
			for _, p := range products {
				w.row(p.ID, p.Name, money(p.Price), p.Unit, stock(p))
			}
			return w.flush()
		}),
	}
	list.Flags().StringVar(&q.Search, "search", "", "search text")
	list.Flags().StringVar(&q.CategoryID, "category", "", "category id")
	list.Flags().IntVar(&q.Page, "page", 0, "page number")
	list.Flags().IntVar(&q.PageSize, "page-size", 0, "page size")

	show := &cobra.Command{
		Use:   "show <productId>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			p, err := c.app.CatalogService.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", p.ID, p.Name)
			fmt.Fprintf(out, "  %s / %s\n", money(p.Price), p.Unit)
			fmt.Fprintf(out, "  stock: %s\n", stock(*p))
			if p.Description != "" {
				fmt.Fprintf(out, "  %s\n", p.Description)
			}
			return nil
		}),
	}

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			cats, err := c.app.CatalogService.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "NAME")
			for _, ct := range cats {
				w.row(ct.ID, ct.Name)
			}
			return w.flush()
		}),
	}

	cmd.AddCommand(list, show, categories)
	return cmd
}

func (c *cli) branchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List store branches",
		RunE: run(func(cmd *cobra.Command, args []string) error {
			branches, err := c.app.BranchService.ListBranches(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "NAME", "ADDRESS")
			for _, b := range branches {
				w.row(b.ID, b.Name, b.Address+", "+b.City)
			}
			return w.flush()
		}),
	}
}

func (c *cli) slotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots <branchId>",
		Short: "List delivery slots of a branch",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			slots, err := c.app.BranchService.ListDeliverySlots(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "ID", "SLOT")
			for _, o := range checkout.BuildSlotOptions(slots) {
				w.row(o.ID, o.Label)
			}
			return w.flush()
		}),
	}
}
