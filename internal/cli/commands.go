package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vk/protoswift/internal/app"
	"github.com/vk/protoswift/internal/plan"
)

func getCmdPlan(s *state) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "plan [TARGET...]",
		Short: "Show the modules and actions a build would produce",
		Long: `Analyze the selected targets, or every declared target when none are
given, and print their modules, module-mapping tables and actions without
running any tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.appConfig(cmd, app.Config{Targets: args, PlanFormat: format})
			if err != nil {
				return err
			}
			return exitError(s.newApp(cfg).Plan(cmd.Context()))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", plan.FormatYAML, "output format: 'yaml' or 'text'")
	return cmd
}

func getCmdBuild(s *state) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "build [TARGET...]",
		Short: "Generate and compile the Swift modules of the selected targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.appConfig(cmd, app.Config{Targets: args, ActionTimeout: timeout})
			if err != nil {
				return err
			}
			_, err = s.newApp(cfg).Build(cmd.Context())
			return exitError(err)
		},
	}
	cmd.Flags().DurationVar(&timeout, "action-timeout", 0, "limit for a single tool invocation, 0 means none")
	return cmd
}

func getCmdInspect(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Describe descriptor sets and module-mapping files",
		Long: `Print the files contained in binary descriptor sets and the modules listed
in module-mapping (` + app.MappingFileSuffix + `) files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.appConfig(cmd, app.Config{})
			if err != nil {
				return err
			}
			return exitError(s.newApp(cfg).Inspect(cmd.Context(), args...))
		},
	}
}
