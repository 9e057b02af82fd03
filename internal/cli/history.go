package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/tradepost/internal/tradelog"
)

// TradeRow is one committed trade in history output.
type TradeRow struct {
	Token       string  `json:"token"`
	CommittedAt string  `json:"committed_at"`
	Actor       string  `json:"actor"`
	Shop        string  `json:"shop"`
	Item        string  `json:"item"`
	Bundle      int     `json:"bundle"`
	Direction   string  `json:"direction"`
	Gross       float64 `json:"gross"`
	Tax         float64 `json:"tax"`
	Net         float64 `json:"net"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, shopKey, actorID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the trade log",
		Long: `Query committed trades from the trade log database, newest first.
Filter by shop key (world:x:y:z) or by actor id.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd, dbPath, shopKey, actorID, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/trades.db", "trade log database path")
	cmd.Flags().StringVar(&shopKey, "shop", "", "filter by shop key (world:x:y:z)")
	cmd.Flags().StringVar(&actorID, "actor", "", "filter by actor uuid")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows returned")
	return cmd
}

func runHistory(opts *RootOptions, cmd *cobra.Command, dbPath, shopKey, actorID string, limit int) error {
	formatter := newFormatter(opts, cmd)

	if shopKey == "" && actorID == "" {
		msg := "one of --shop or --actor is required"
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if _, err := os.Stat(dbPath); err != nil {
		msg := fmt.Sprintf("trade log not found: %s", dbPath)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	log, err := tradelog.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	defer log.Close()

	var trades []tradelog.Trade
	ctx := cmd.Context()
	switch {
	case shopKey != "":
		trades, err = log.ListByShop(ctx, shopKey, limit)
	default:
		actor, parseErr := uuid.Parse(actorID)
		if parseErr != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("invalid actor id: %v", parseErr), nil)
			return NewExitError(ExitCommandError, parseErr.Error())
		}
		trades, err = log.ListByActor(ctx, actor, limit)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	rows := make([]TradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, TradeRow{
			Token:       t.Token,
			CommittedAt: t.CommittedAt.UTC().Format(time.RFC3339),
			Actor:       t.ActorID.String(),
			Shop:        t.ShopKey,
			Item:        string(t.Item),
			Bundle:      t.Bundle,
			Direction:   t.Direction,
			Gross:       t.Gross,
			Tax:         t.Tax,
			Net:         t.Net,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(formatter.Writer, "no trades")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(formatter.Writer, "%s  %-4s %3d x %-16s gross %.2f tax %.2f net %.2f  %s\n",
			r.CommittedAt, r.Direction, r.Bundle, r.Item, r.Gross, r.Tax, r.Net, r.Shop)
	}
	fmt.Fprintf(formatter.Writer, "%d trade(s)\n", len(rows))
	return nil
}
