package main

import (
	"fmt"

	"github.com/spf13/cobra"

	statechart "github.com/stateforward/go-statechart"
	"github.com/stateforward/go-statechart/kinds"
	"github.com/stateforward/go-statechart/pkg/definition"
)

type validationResult struct {
	Name   string `json:"name"`
	Valid  bool   `json:"valid"`
	States int    `json:"states"`
}

func newValidateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a definition declares a statechart that can be initialized",
		Long: `Parse a YAML definition, declare its model and build the statechart
without entering it. Declaration errors and a missing root initial state are
reported as failures.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}
}

func runValidate(opts *rootOptions, cmd *cobra.Command, file string) error {
	def, err := definition.Load(file)
	if err != nil {
		return err
	}
	model, err := def.Model()
	if err != nil {
		return err
	}
	_, err = statechart.New(cmd.Context(), model,
		statechart.WithLogger(opts.logger(cmd)),
		statechart.WithAutoInitialize(false),
	)
	if err != nil {
		return err
	}
	result := validationResult{Name: def.Name, Valid: true}
	for _, element := range model.Namespace() {
		if kinds.IsKind(element.Kind(), kinds.State) {
			result.States++
		}
	}
	return opts.write(cmd.OutOrStdout(), result, fmt.Sprintf("✓ %s is valid (%d states)\n", result.Name, result.States))
}
