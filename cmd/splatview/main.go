// splatview - Terminal Gaussian Splat Viewer
// View .splat, .ply, .glb/.gltf and .obj scenes in your terminal.
//
// Controls:
//
//	Mouse drag  - Orbit the camera
//	Scroll      - Zoom in/out
//	Arrows/HJKL - Orbit the camera
//	+/-         - Zoom in/out
//	R           - Reset camera
//	O           - Toggle auto-rotate (full or swing, per scene)
//	F / G       - Full orbit / swing auto-rotate
//	A           - Toggle antialiasing
//	[ / ]       - Lower / raise alpha threshold
//	X           - Toggle x-ray (mesh wireframes and asset bounds)
//	Enter       - Retry a failed load
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// options are the values of the root command's flags.
type options struct {
	configPath string
	resolution string
	baseURL    string
	modelsDir  string
	orbit      string
	fps        int
	bg         string
	antialias  bool
	alpha      float64
	watch      bool
	logPath    string
	debug      bool
	autoRotate bool
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

// newRootCmdWith binds the command's flags to o.
func newRootCmdWith(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "splatview [scene-id | file]",
		Short: "Terminal Gaussian Splat Viewer",
		Long: `splatview - Terminal Gaussian Splat Viewer

View a scene from the configured catalog, or a local .splat, .ply,
.glb/.gltf or .obj file, in your terminal.

Controls:
  Mouse drag  - Orbit the camera
  Scroll      - Zoom in/out
  Arrows/HJKL - Orbit the camera
  +/-         - Zoom in/out
  R           - Reset camera
  O           - Toggle auto-rotate
  F / G       - Full orbit / swing auto-rotate
  A           - Toggle antialiasing
  [ / ]       - Lower / raise alpha threshold
  Enter       - Retry a failed load
  ?           - Toggle HUD overlay
  Esc         - Quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			log, closeLog, err := newLogger(o.logPath, o.debug)
			if err != nil {
				return err
			}
			defer closeLog()

			src, fileCfg, err := resolve(cmd, o, arg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runView(ctx, o, fileCfg, src, log)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "Config file (TOML or YAML; default ~/.config/splatview/config.toml)")
	f.StringVar(&o.baseURL, "base-url", "", "Base URL assets are served from (<url>/models/<file>)")
	f.StringVar(&o.modelsDir, "models-dir", "", "Local directory to load scene assets from instead of the base URL")
	f.StringVarP(&o.resolution, "resolution", "r", "", "Asset resolution: low, medium, high or full")
	f.BoolVar(&o.antialias, "aa", false, "Antialiased splats")
	f.Float64Var(&o.alpha, "alpha", 1, "Alpha removal threshold (0-10)")
	f.StringVar(&o.orbit, "orbit", "base", "Orbit profile for local files: topDown360, frontFocus or base")
	f.StringVar(&o.logPath, "log", "", "Write logs to this file")
	f.BoolVar(&o.debug, "debug", false, "Debug logging")

	cmd.Flags().IntVar(&o.fps, "fps", 0, "Target FPS (default from config)")
	cmd.Flags().StringVar(&o.bg, "bg", "", "Background color (#rrggbb)")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Reload a local file when it changes")
	cmd.Flags().BoolVar(&o.autoRotate, "rotate", false, "Start with auto-rotate on")

	cmd.AddCommand(newInfoCmd(), newSnapshotCmd(o))
	return cmd
}
