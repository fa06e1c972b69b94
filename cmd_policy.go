package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/reviewcal/internal/spaced_repetition"
)

var (
	policySpacing string
	policySM2     bool
	policyCount   int
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect spacing policies",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the review days of a spacing policy",
	Long: `Print the day offsets, counted from the first ask, at which an item is
reviewed.

Examples:
  reviewcal policy show --spacing 0,1,2,5,8,14
  reviewcal policy show --sm2 --count 12
`,
	Args: cobra.NoArgs,
	RunE: runPolicyShow,
}

func init() {
	policyShowCmd.Flags().StringVar(&policySpacing, "spacing", "0,1,2,5,8,14", "Comma separated day offsets")
	policyShowCmd.Flags().BoolVar(&policySM2, "sm2", false, "Use the SM-2 style procedural policy instead of --spacing")
	policyShowCmd.Flags().IntVarP(&policyCount, "count", "n", 10, "Maximum number of repetitions to print")
	policyCmd.AddCommand(policyShowCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	var policy spaced_repetition.Policy
	if policySM2 {
		policy = spaced_repetition.NewSM2()
	} else {
		static, err := spaced_repetition.ParseOffsets(policySpacing)
		if err != nil {
			return err
		}
		policy = static
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Policy %v\n", policy)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REPETITION\tDAY\tGAP")
	prev := 0
	for n, offset := range spaced_repetition.Table(policy, policyCount) {
		fmt.Fprintf(tw, "%d\t%d\t%d\n", n+1, offset.Offset(), offset.Offset()-prev)
		prev = offset.Offset()
	}
	return tw.Flush()
}
