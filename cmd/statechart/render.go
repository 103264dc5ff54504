package main

import (
	"github.com/spf13/cobra"

	"github.com/stateforward/go-statechart/pkg/definition"
	"github.com/stateforward/go-statechart/pkg/plantuml"
)

func newRenderCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "render <file>",
		Short:        "Print the PlantUML diagram of a definition",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := definition.Load(args[0])
			if err != nil {
				return err
			}
			model, err := def.Model()
			if err != nil {
				return err
			}
			return plantuml.Generate(cmd.OutOrStdout(), model)
		},
	}
}
