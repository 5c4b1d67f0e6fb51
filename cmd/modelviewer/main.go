// modelviewer - Terminal 3D Model Viewer
// View OBJ and glTF files in your terminal with a software rasterizer.
package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/modelviewer/internal/config"
	"github.com/taigrr/modelviewer/internal/viewer"
)

var version = "dev"

func main() {
	err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		snapshot   string
		saveConfig bool
		overrides  *config.Flags
	)

	cmd := &cobra.Command{
		Use:   "modelviewer [flags] <model.obj|model.glb>",
		Short: "View OBJ and glTF models in the terminal",
		Long:  "modelviewer renders a 3D model with a multi-threaded software rasterizer and\nshows it with half-block characters.\n\n" + viewer.Help,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, overrides)
			if err != nil {
				return err
			}
			if saveConfig {
				if err := cfg.Save(); err != nil {
					return err
				}
			}
			if snapshot != "" {
				return runSnapshot(cmd.Context(), cfg, args[0], snapshot)
			}
			return runInteractive(cmd.Context(), cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ./config.yaml or the user config dir)")
	cmd.Flags().StringVarP(&snapshot, "snapshot", "o", "", "render one frame to this PNG file and exit")
	cmd.Flags().BoolVar(&saveConfig, "save-config", false, "write the effective config to the user config dir")
	overrides = config.BindFlags(cmd.Flags())
	return cmd
}
