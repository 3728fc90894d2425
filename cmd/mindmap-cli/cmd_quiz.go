package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Quiz statistics per node",
	}
	cmd.AddCommand(quizStatsCmd())
	cmd.AddCommand(quizRecordCmd())
	return cmd
}

func quizStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <graph-id>",
		Short: "Show attempts and accuracy for every quizzed node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Quiz.Stats(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("quiz stats: %w", err)
			}
			if flagFmt != "table" {
				output(stats, strconv.Itoa(len(stats)))
				return nil
			}

			ids := make([]string, 0, len(stats))
			for id := range stats {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				s := stats[id]
				rows = append(rows, []string{id, s.Label, strconv.Itoa(s.Attempts), strconv.Itoa(s.Correct), percent(s.Accuracy)})
			}
			formatTable([]string{"NODE", "LABEL", "ATTEMPTS", "CORRECT", "ACCURACY"}, rows)
			return nil
		},
	}
}

func quizRecordCmd() *cobra.Command {
	var (
		label string
		wrong bool
	)
	cmd := &cobra.Command{
		Use:   "record <graph-id> <node-id>",
		Short: "Record one answered question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := apiClient.Quiz.Record(cmd.Context(), args[0], args[1], label, !wrong)
			if err != nil {
				return fmt.Errorf("quiz record: %w", err)
			}
			output(st, fmt.Sprintf("%.0f", st.Accuracy))
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Node label stored with the statistics")
	cmd.Flags().BoolVar(&wrong, "wrong", false, "Record an incorrect answer")
	return cmd
}
