package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"exercises-server/api"
	"exercises-server/console"
)

func playCmd() *cobra.Command {
	var flipMS int
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the memory game in the terminal",
		Long:  "Play the memory game in the terminal. Enter a card number to turn it over, r to reset, q to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("flip-ms") {
				cfg.FlipDurationMS = flipMS
			}
			return console.Play(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Deck, cfg.FlipDurationMS)
		},
	}
	cmd.Flags().IntVar(&flipMS, "flip-ms", 0, "how long a mismatched pair stays visible, in ms (350-3000)")
	return cmd
}

func currenciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "currencies",
		Short: "List supported currencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, closeDeps, err := newExchangeClient(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDeps()

			list, err := client.Currencies(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range list {
				printf(cmd, "%s - %s\n", c.Code, c.Name)
			}
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert AMOUNT FROM TO",
		Short: "Convert an amount at the latest rate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("amount must be a number: %q", args[0])
			}
			from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])

			client, _, closeDeps, err := newExchangeClient(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDeps()

			result, err := client.Convert(cmd.Context(), amount, from, to)
			if err != nil {
				return err
			}
			printf(cmd, "%s %s = %.2f %s\n", args[0], from, result, to)
			return nil
		},
	}
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff FROM TO",
		Short: "Show how a rate moved since yesterday",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := strings.ToUpper(args[0]), strings.ToUpper(args[1])

			client, _, closeDeps, err := newExchangeClient(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDeps()

			diff, err := client.RateDifference(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", api.FormatDifference(from, to, diff))
			return nil
		},
	}
}
