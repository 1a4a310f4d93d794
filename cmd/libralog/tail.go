package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scaleworks/libralog/internal/config"
	"github.com/scaleworks/libralog/internal/events"
	"github.com/scaleworks/libralog/internal/ui"
	"github.com/spf13/cobra"
)

var (
	tailDevice string
	tailJSON   bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the live event stream from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("tail requires LIBRA_NATS_URL")
		}

		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		topic := events.TopicAll
		if tailDevice != "" {
			topic = events.DeviceTopic(tailDevice)
		}

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return err
		}
		defer cancel()

		fmt.Fprintf(os.Stderr, "tailing %s (ctrl-c to stop)\n", topic)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data)
			}
		}
	},
}

func printEvent(data []byte) {
	if tailJSON {
		fmt.Println(string(data))
		return
	}

	var payload events.NewEvent
	if err := json.Unmarshal(data, &payload); err != nil || payload.Event == nil {
		fmt.Println(string(data))
		return
	}

	e := payload.Event
	fmt.Printf("%s %s %-10s %8.2fg %s %s\n",
		ui.RenderMuted(e.Timestamp.Format("15:04:05")),
		e.DeviceID,
		ui.RenderAction(string(e.Action)),
		e.Amount,
		e.Ingredient,
		ui.RenderMuted(e.Location),
	)
}

func init() {
	tailCmd.Flags().StringVar(&tailDevice, "device", "", "only show events for this device")
	tailCmd.Flags().BoolVar(&tailJSON, "json", false, "print raw JSON payloads")
}
