package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/taigrr/splatview/pkg/config"
	"github.com/taigrr/splatview/pkg/engine"
	"github.com/taigrr/splatview/pkg/render"
	"github.com/taigrr/splatview/pkg/viewer"
)

type snapshotOptions struct {
	out     string
	cols    int
	rows    int
	timeout time.Duration
}

func newSnapshotCmd(o *options) *cobra.Command {
	so := &snapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot [scene-id | file]",
		Short: "Render one frame to a PNG file",
		Long:  "Load a scene or local file without a terminal, frame the camera and write a single rendered frame as PNG.",
		Args:  cobra.MaximumNArgs(1),
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
			ctx, cancel := context.WithTimeout(cmd.Context(), so.timeout)
			defer cancel()
			if err := snapshot(ctx, src, fileCfg, so, log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d)\n", so.out, so.cols, so.rows*2)
			return nil
		},
	}
	cmd.Flags().StringVarP(&so.out, "output", "o", "splatview.png", "Output PNG path")
	cmd.Flags().IntVar(&so.cols, "width", 160, "Frame width in pixels")
	cmd.Flags().IntVar(&so.rows, "rows", 45, "Frame height in terminal rows (two pixels each)")
	cmd.Flags().DurationVar(&so.timeout, "timeout", 2*time.Minute, "Give up if loading takes longer")
	return cmd
}

// snapshot renders src once into a surface of so.cols × so.rows cells and
// saves the frame.
func snapshot(ctx context.Context, src source, fileCfg *config.Config, so *snapshotOptions, log *slog.Logger) error {
	bg, err := config.ParseColor(fileCfg.Background)
	if err != nil {
		return err
	}
	surface := render.NewSurface(so.cols, so.rows)
	guard := viewer.NewGuard(surface, viewer.GuardConfig{
		Engine:  engine.New(engine.Options{Logger: log, Background: bg}),
		Fetcher: src.fetcher,
		FPS:     fileCfg.FPS,
		Logger:  log,
	})
	defer guard.Unmount()

	guard.Apply(src.cfg)
	loaded := make(chan struct{})
	go func() {
		guard.Wait()
		close(loaded)
	}()
	select {
	case <-loaded:
	case <-ctx.Done():
		return fmt.Errorf("loading %s: %w", src.cfg.Asset.Filename, ctx.Err())
	}

	st := guard.Status()
	if st.Err != nil {
		return st.Err
	}
	if st.State != viewer.StateReady {
		return fmt.Errorf("scene not ready (%s)", st.State)
	}

	err = errors.New("session went away")
	guard.WithSession(func(s *viewer.Session) {
		r, ok := s.Renderer().(*engine.Renderer)
		if !ok {
			err = fmt.Errorf("unexpected renderer %T", s.Renderer())
			return
		}
		s.Controls().Update()
		err = r.RenderOnce()
	})
	if err != nil {
		return err
	}
	frame := surface.Frame()
	if frame == nil {
		return errors.New("no frame presented")
	}
	return frame.SavePNG(so.out)
}
