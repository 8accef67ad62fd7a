package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/spf13/cobra"
)

func newOrdersCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Submit and inspect orders",
	}
	cmd.AddCommand(newOrdersListCommand(opts), newOrdersGetCommand(opts), newOrdersSubmitCommand(opts))
	return cmd
}

func newOrdersListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every order, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validateOutput(); err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			resp, err := c.ListOrders(ctx)
			if err != nil {
				return describe(err)
			}
			if opts.output == "json" {
				return opts.printJSON(resp)
			}
			return opts.printOrders(resp.Orders...)
		},
	}
}

func newOrdersGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateOutput(); err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("order id must be an integer: %q", args[0])
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			order, err := c.GetOrder(ctx, id)
			if err != nil {
				return describe(err)
			}
			if opts.output == "json" {
				return opts.printJSON(order)
			}
			return opts.printOrders(order)
		},
	}
}

func newOrdersSubmitCommand(opts *options) *cobra.Command {
	var (
		req   views.OrderRequest
		qty   string
		yield string
		notes string
	)
	cmd := &cobra.Command{
		Use:     "submit",
		Short:   "Submit a new order",
		Example: "  deskctl orders submit --side Buy --tenor 10Y --issuance-type OTR --quantity 5000 --yield 4.57",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Quantity = json.Number(qty)
			req.Yield = json.Number(yield)
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			resp, err := c.SubmitOrder(ctx, req)
			if err != nil {
				return describe(err)
			}
			if opts.output == "json" {
				return opts.printJSON(resp)
			}
			_, err = fmt.Fprintf(opts.out, "%s (id %d)\n", resp.Message, resp.OrderID)
			return err
		},
	}
	cmd.Flags().StringVar(&req.Side, "side", "", "Buy or Sell")
	cmd.Flags().StringVar(&req.Tenor, "tenor", "", "tenor code such as 10Y or 1.5M")
	cmd.Flags().StringVar(&req.IssuanceType, "issuance-type", "", "WI, OTR or OFTR")
	cmd.Flags().StringVar(&qty, "quantity", "", "face amount, a multiple of 1000")
	cmd.Flags().StringVar(&yield, "yield", "", "yield in percent")
	cmd.Flags().StringVar(&notes, "notes", "", "free text, at most 1000 characters")
	return cmd
}

func (o *options) printOrders(orders ...views.OrderView) error {
	w := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIDE\tTENOR\tTYPE\tQUANTITY\tYIELD\tCREATED\tNOTES")
	for _, ord := range orders {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%.3f\t%s\t%s\n",
			ord.ID, ord.Side, ord.Tenor, ord.IssuanceType, ord.Quantity, ord.Yield,
			ord.CreatedAt.Format("2006-01-02 15:04:05"), ord.Notes)
	}
	return w.Flush()
}
