package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	statechart "github.com/stateforward/go-statechart"
	"github.com/stateforward/go-statechart/pkg/definition"
)

type runOptions struct {
	Events []string
}

// runStep is the configuration after the initial entry or after an event.
type runStep struct {
	Event   string   `json:"event,omitempty"`
	Handled bool     `json:"handled"`
	States  []string `json:"states"`
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Send events to a statechart and print its current states",
		Long: `Enter the initial configuration of a YAML definition, then dispatch each
--event in order, printing the current leaf states after every step.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(rootOpts, opts, cmd, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Events, "event", "e", nil, "event to dispatch (repeatable)")

	return cmd
}

func runEvents(rootOpts *rootOptions, opts *runOptions, cmd *cobra.Command, file string) error {
	def, err := definition.Load(file)
	if err != nil {
		return err
	}
	model, err := def.Model()
	if err != nil {
		return err
	}
	sc, err := statechart.New(cmd.Context(), model,
		statechart.WithLogger(rootOpts.logger(cmd)),
		statechart.WithTraceLogging(rootOpts.Verbose),
	)
	if err != nil {
		return err
	}
	steps := []runStep{{Handled: true, States: sc.States()}}
	for _, event := range opts.Events {
		handled := sc.SendEvent(event)
		steps = append(steps, runStep{Event: event, Handled: handled, States: sc.States()})
	}
	var text strings.Builder
	for _, step := range steps {
		switch {
		case step.Event == "":
			fmt.Fprintf(&text, "initial: %s\n", strings.Join(step.States, ", "))
		case step.Handled:
			fmt.Fprintf(&text, "%s: %s\n", step.Event, strings.Join(step.States, ", "))
		default:
			fmt.Fprintf(&text, "%s (not handled): %s\n", step.Event, strings.Join(step.States, ", "))
		}
	}
	return rootOpts.write(cmd.OutOrStdout(), steps, text.String())
}
