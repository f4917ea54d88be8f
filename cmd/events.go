package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/internal/mq"
	"github.com/noob2628/Inventory-App/types"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect inventory change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print inventory events from the configured broker until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		out := cmd.OutOrStdout()
		err = queue.Subscribe(ctx, cfg.MQ.EventsChannel, func(_ context.Context, msg mq.Message) error {
			var event types.InventoryEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				log.Warn("skipping malformed event", zap.String("message_id", msg.ID), zap.Error(err))
				return nil
			}
			fmt.Fprintf(out, "%s %-22s record=%d actor=%d\n",
				event.OccurredAt.Format("2006-01-02 15:04:05"), event.Type, event.RecordID, event.ActorID)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
