package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/symrules/metarule/pkg/metarule"
)

var (
	// Global flags
	configPath     string
	checkpointPath string
	verbose        bool

	cfg metarule.RunConfig
	ctx *metarule.Context
)

// rootCmd is the metarule CLI's entry point.
var rootCmd = &cobra.Command{
	Use:   "metarule",
	Short: "metarule exercises the meta-language reasoning core from the command line",
	Long: `metarule is a command-line harness over the symbolic sentence
algebra: match, unify, anti-unify, and the backward/forward provers.

It is a debugging and demonstration tool, not a training-loop driver —
dataset loading, the MAX-SAT solver, and rule proposers remain external
collaborators (see pkg/metarule's proposer.go and maxsat.go).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = metarule.LoadRunConfig(configPath)
		} else {
			cfg = metarule.DefaultRunConfig()
		}
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		if checkpointPath == "" {
			checkpointPath = cfg.CheckpointPath
		}

		ctx = metarule.NewContext()
		if checkpointPath != "" {
			if _, statErr := os.Stat(checkpointPath); statErr == nil {
				if err := metarule.LoadCheckpoint(ctx, checkpointPath); err != nil {
					return err
				}
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if checkpointPath != "" {
			return metarule.SaveCheckpoint(ctx, checkpointPath)
		}
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match [pattern] [concrete]",
	Short: "Match a pattern sentence against a concrete sentence",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, err := metarule.ParseSentence(ctx, args[0])
		if err != nil {
			return err
		}
		concrete, err := metarule.ParseSentence(ctx, args[1])
		if err != nil {
			return err
		}

		subs := metarule.Match(pattern, concrete)
		if len(subs) == 0 {
			color.Yellow("no match")
			return nil
		}
		for i, s := range subs {
			fmt.Printf("%d: %s\n", i, s.String())
		}
		return nil
	},
}

var unifyDepth int

var unifyCmd = &cobra.Command{
	Use:   "unify [sentence1] [sentence2]",
	Short: "Enumerate substitutions unifying two sentences",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s1, err := metarule.ParseSentence(ctx, args[0])
		if err != nil {
			return err
		}
		s2, err := metarule.ParseSentence(ctx, args[1])
		if err != nil {
			return err
		}

		depth := unifyDepth
		if depth == 0 {
			depth = cfg.UnifyDepthLimit
		}
		subs := metarule.Unify(s1, s2, depth)
		if len(subs) == 0 {
			color.Yellow("no unifier within depth %d", depth)
			return nil
		}
		for i, s := range subs {
			fmt.Printf("%d: %s\n", i, s.String())
		}
		return nil
	},
}

var antiunifyCmd = &cobra.Command{
	Use:   "antiunify [sentence1] [sentence2]",
	Short: "Compute the least general generalization of two sentences",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s1, err := metarule.ParseSentence(ctx, args[0])
		if err != nil {
			return err
		}
		s2, err := metarule.ParseSentence(ctx, args[1])
		if err != nil {
			return err
		}

		generalizations := metarule.AntiUnify(s1, s2)
		if len(generalizations) == 0 {
			color.Yellow("no generalization")
			return nil
		}
		for i, au := range generalizations {
			fmt.Printf("%d: %s\n", i, au.General.String())
		}
		return nil
	},
}

var (
	proveRulesPath       string
	proveAssumptionsPath string
	proveWeightLimit     float64
	proveProposal        bool
)

var proveCmd = &cobra.Command{
	Use:   "prove [goal]",
	Short: "Backward-prove a goal sentence against assumptions and rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal, err := metarule.ParseSentence(ctx, args[0])
		if err != nil {
			return err
		}

		rulesPath := proveRulesPath
		if rulesPath == "" {
			rulesPath = cfg.RulesPath
		}
		rules, err := loadRuleFile(rulesPath)
		if err != nil {
			return err
		}
		assumptions, err := loadAssumptionFile(proveAssumptionsPath)
		if err != nil {
			return err
		}

		limit := proveWeightLimit
		if limit == 0 {
			limit = cfg.WeightLimit
		}

		log, err := metarule.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		bp := metarule.NewBackwardProver(ctx, rules, proveProposal || cfg.OnTheFlyProposal, log)
		result := bp.Prove(assumptions, goal, limit)

		for _, entry := range result.Entries() {
			fmt.Printf("%s (depth %d, %d proof path(s))\n", entry.Substitution.String(), entry.Depth, len(entry.ProofPaths))
		}
		return nil
	},
}

var (
	forwardRulesPath string
	forwardUseNaive  bool
)

var forwardCmd = &cobra.Command{
	Use:   "forward [assumption...]",
	Short: "Forward-chain from assumptions to every derivable conclusion",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRuleFile(forwardRulesPath)
		if err != nil {
			return err
		}

		assumptions := make([]*metarule.Sentence, 0, len(args))
		for _, a := range args {
			s, err := metarule.ParseSentence(ctx, a)
			if err != nil {
				return err
			}
			assumptions = append(assumptions, s)
		}

		report := func(s *metarule.Sentence, r *metarule.Rule) bool {
			if r == nil {
				color.Cyan("%s (assumption)", s.String())
			} else {
				fmt.Println(s.String())
			}
			return true
		}

		if forwardUseNaive {
			metarule.NewNaiveForwardProver(rules).Run(assumptions, report)
			return nil
		}

		log, err := metarule.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()
		metarule.NewReteForwardProver(rules, log).Run(assumptions, report)
		return nil
	},
}

func loadRuleFile(path string) ([]metarule.WeightedRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return metarule.ParseWeightedRules(ctx, string(data))
}

func loadAssumptionFile(path string) ([]*metarule.Sentence, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return metarule.ParseSentenceLines(ctx, string(data))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a RunConfig YAML file")
	rootCmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "vocabulary checkpoint path (loaded before, saved after)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	unifyCmd.Flags().IntVar(&unifyDepth, "depth", 0, "unify depth limit (0 = use config default)")

	proveCmd.Flags().StringVar(&proveRulesPath, "rules", "", "path to a weighted-rule file")
	proveCmd.Flags().Float64Var(&proveWeightLimit, "weight-limit", 0, "weight budget (0 = use config default)")
	proveCmd.Flags().BoolVar(&proveProposal, "on-the-fly-proposal", false, "enable zero-premise self-proposal for concrete goals")
	proveCmd.Flags().StringVar(&proveAssumptionsPath, "assumptions", "", "path to a newline-delimited assumption file")

	forwardCmd.Flags().StringVar(&forwardRulesPath, "rules", "", "path to a weighted-rule file")
	forwardCmd.Flags().BoolVar(&forwardUseNaive, "naive", false, "use the naive saturating prover instead of Rete")

	rootCmd.AddCommand(matchCmd, unifyCmd, antiunifyCmd, proveCmd, forwardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}
