package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/tradepost/internal/alert"
)

// AlertQueueRow is one owner's pending queue in alerts output.
type AlertQueueRow struct {
	Owner    string   `json:"owner"`
	Messages []string `json:"messages"`
}

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand(rootOpts *RootOptions) *cobra.Command {
	var alertsPath string

	cmd := &cobra.Command{
		Use:           "alerts",
		Short:         "Show pending alert queues",
		Long:          "Show alert messages queued for offline shop owners, by owner id.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlerts(rootOpts, cmd, alertsPath)
		},
	}

	cmd.Flags().StringVar(&alertsPath, "alerts", "data/alerts.yml", "pending alerts file")
	return cmd
}

func runAlerts(opts *RootOptions, cmd *cobra.Command, alertsPath string) error {
	formatter := newFormatter(opts, cmd)
	log := newLogger(opts, cmd)

	store, err := alert.OpenPendingStore(alertsPath, log)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	pending := store.All()
	rows := make([]AlertQueueRow, 0, len(pending))
	for owner, msgs := range pending {
		rows = append(rows, AlertQueueRow{Owner: owner.String(), Messages: msgs})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Owner < rows[j].Owner })

	if opts.Format == "json" {
		return formatter.Success(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(formatter.Writer, "no pending alerts")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(formatter.Writer, "%s (%d):\n", r.Owner, len(r.Messages))
		for _, msg := range r.Messages {
			fmt.Fprintf(formatter.Writer, "  %s\n", msg)
		}
	}
	return nil
}
