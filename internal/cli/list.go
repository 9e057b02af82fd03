package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/tradepost/internal/shop"
	"github.com/roach88/tradepost/internal/sign"
	"github.com/roach88/tradepost/internal/world"
)

// ShopRow is one shop in list output.
type ShopRow struct {
	Owner     string  `json:"owner"`
	Sign      string  `json:"sign"`
	Item      string  `json:"item"`
	Bundle    int     `json:"bundle"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var shopsPath, itemFilter, ownerFilter string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List shops from the shops data file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd, shopsPath, itemFilter, ownerFilter)
		},
	}

	cmd.Flags().StringVar(&shopsPath, "shops", "data/shops.yml", "shops file to read")
	cmd.Flags().StringVar(&itemFilter, "item", "", "only shops trading this item")
	cmd.Flags().StringVar(&ownerFilter, "owner", "", "only shops owned by this player name")
	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command, shopsPath, itemFilter, ownerFilter string) error {
	formatter := newFormatter(opts, cmd)
	log := newLogger(opts, cmd)

	reg := shop.NewRegistry()
	persister := shop.NewPersister(shopsPath, 0, log)
	if _, err := persister.Load(reg, world.AcceptAllProber{}); err != nil {
		_ = formatter.Error(ErrCodeBadShops, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	var itemWant world.ItemType
	if itemFilter != "" {
		var err error
		itemWant, err = world.NormalizeItem(itemFilter)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
	}

	var rows []ShopRow
	for _, s := range reg.Snapshot() {
		if itemWant != "" && s.Item() != itemWant {
			continue
		}
		if ownerFilter != "" && s.OwnerName() != ownerFilter {
			continue
		}
		rows = append(rows, ShopRow{
			Owner:     s.OwnerName(),
			Sign:      s.SignKey(),
			Item:      string(s.Item()),
			Bundle:    s.Bundle(),
			BuyPrice:  s.BuyPrice(),
			SellPrice: s.SellPrice(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Sign < rows[j].Sign })

	if opts.Format == "json" {
		return formatter.Success(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(formatter.Writer, "no shops")
		return nil
	}
	for _, r := range rows {
		price := "buy " + sign.FormatPrice(r.BuyPrice)
		if r.SellPrice > 0 {
			price += " sell " + sign.FormatPrice(r.SellPrice)
		}
		fmt.Fprintf(formatter.Writer, "%-20s %-24s %3d x %-16s %s\n",
			r.Owner, r.Sign, r.Bundle, r.Item, price)
	}
	fmt.Fprintf(formatter.Writer, "%d shop(s)\n", len(rows))
	return nil
}
