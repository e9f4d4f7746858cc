package cli

import (
	"github.com/spf13/cobra"

	"github.com/kofflo/chamannas/internal/ui"
)

func newRunCmd() *cobra.Command {
	var toolkitName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the availability front end",
		Long:  "Open the availability front end for the selected huts. The toolkit is chosen once at startup: the interactive terminal UI, the plain console renderer or the JSON emitter.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.persist()

			name := toolkitName
			if name == "" {
				name = a.cfg.UI.Toolkit
			}
			toolkit, err := ui.Select(name)
			if err != nil {
				return err
			}

			a.log.Info().Str("toolkit", toolkit.Name()).Msg("starting front end")
			return toolkit.Run(cmd.Context(), a.model)
		},
	}

	cmd.Flags().StringVar(&toolkitName, "toolkit", "", "front end toolkit: auto, tui, console or json")
	return cmd
}
