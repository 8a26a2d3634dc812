package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vietddude/cardgate/internal/infra/gateway"
)

func newCardCmd(opts *rootOptions) *cobra.Command {
	cardCmd := &cobra.Command{
		Use:   "card",
		Short: "Generate, fetch and analyze cards",
	}

	getCmd := &cobra.Command{
		Use:   "get [card_id]",
		Short: "Fetch a card by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.application()
			if err != nil {
				return err
			}
			card, err := a.client.GetCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(opts.out, card)
		},
	}

	var generateFile string
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a card from a JSON description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readCard(cmd, generateFile)
			if err != nil {
				return err
			}
			a, err := opts.application()
			if err != nil {
				return err
			}
			card, err := a.client.GenerateCard(cmd.Context(), data)
			if err != nil {
				return err
			}
			return printJSON(opts.out, card)
		},
	}
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "card JSON file, - for stdin")

	var analyzeFile string
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a card's tags and synergy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readCard(cmd, analyzeFile)
			if err != nil {
				return err
			}
			a, err := opts.application()
			if err != nil {
				return err
			}
			analysis, err := a.client.AnalyzeCard(cmd.Context(), data)
			if err != nil {
				return err
			}
			return printJSON(opts.out, analysis)
		},
	}
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "card JSON file, - for stdin")

	cardCmd.AddCommand(getCmd, generateCmd, analyzeCmd)
	return cardCmd
}

func readCard(cmd *cobra.Command, path string) (gateway.CardData, error) {
	var card gateway.CardData
	raw, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return card, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&card); err != nil {
		return card, fmt.Errorf("invalid card JSON: %w", err)
	}
	return card, nil
}
