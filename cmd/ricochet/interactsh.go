package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/interactsh"
)

var interactshFlags struct {
	server        string
	correlationID string
}

var interactshCmd = &cobra.Command{
	Use:   "interactsh",
	Short: "Mint or poll a globally-reachable callback domain via an interact.sh server",
}

var interactshURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Register a new correlation ID and print its callback domain",
	RunE:  runInteractshURL,
}

var interactshPollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll an existing correlation ID for interactions",
	RunE:  runInteractshPoll,
}

func init() {
	rootCmd.AddCommand(interactshCmd)
	interactshCmd.AddCommand(interactshURLCmd)
	interactshCmd.AddCommand(interactshPollCmd)

	interactshCmd.PersistentFlags().StringVar(&interactshFlags.server, "server", interactsh.DefaultServer, "interactsh server URL")
	interactshPollCmd.Flags().StringVar(&interactshFlags.correlationID, "correlation-id", "", "correlation ID to poll (required)")
	_ = interactshPollCmd.MarkFlagRequired("correlation-id")
}

func runInteractshURL(cmd *cobra.Command, args []string) error {
	client, err := interactsh.New(cmd.Context(), interactsh.Options{ServerURL: interactshFlags.server})
	if err != nil {
		return fmt.Errorf("register with interactsh server: %w", err)
	}
	fmt.Println(client.URL())
	logger.Info("interactsh domain minted",
		zap.String("domain", client.URL()),
		zap.String("correlation_id", client.CorrelationID()))
	return nil
}

func runInteractshPoll(cmd *cobra.Command, args []string) error {
	if interactshFlags.correlationID == "" {
		return usageErrorf("interactsh poll requires --correlation-id")
	}

	client, err := interactsh.New(cmd.Context(), interactsh.Options{
		ServerURL:     interactshFlags.server,
		CorrelationID: interactshFlags.correlationID,
	})
	if err != nil {
		return fmt.Errorf("register with interactsh server: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Deregister(ctx)
	}()

	interactions, err := client.Poll(cmd.Context())
	if err != nil {
		return fmt.Errorf("poll interactsh server: %w", err)
	}

	if len(interactions) == 0 {
		logger.Info("no interactions observed", zap.String("correlation_id", interactshFlags.correlationID))
		return nil
	}
	for _, in := range interactions {
		logger.Warn("interaction observed",
			zap.String("correlation_id", interactshFlags.correlationID),
			zap.String("protocol", in.Protocol),
			zap.String("timestamp", in.Timestamp),
			zap.String("unique_id", in.UniqueID))
	}
	return nil
}
