package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/viewer"

	"cogentcore.org/core/base/errors"
	"github.com/spf13/cobra"
)

type viewOptions struct {
	screenshot string
	timeout    time.Duration
}

func newViewCommand(root *rootOptions) *cobra.Command {
	opts := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view FILE...",
		Short: "Load mmCIF and SDF files into a scene and show it",
		Long: "Load mmCIF (.cif, .mmcif) and SDF (.sdf, .sd, .mol) files, optionally gzipped, into one scene " +
			"and open a viewer on it. Clicking an atom logs it. With --headless the scene is drawn off-screen " +
			"and --screenshot is required.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(root, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.screenshot, "screenshot", "o", "", "save the first frame to this image file (png, jpg, gif, tif, bmp)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "how long to wait for the first frame before taking the screenshot")
	return cmd
}

func runView(root *rootOptions, opts *viewOptions, paths []string) error {
	eng, err := root.newEngine()
	if err != nil {
		return err
	}
	defer eng.Quit()

	if eng.Window() == nil && opts.screenshot == "" {
		return fmt.Errorf("view: --headless needs --screenshot")
	}

	sc, err := eng.LoadScene("view", paths...)
	if err != nil {
		if sc == nil || sc.Len() == 0 {
			return err
		}
		common.Logger().Warn("some records were skipped", "err", err)
	}

	v, err := eng.Render(sc, viewer.WithClickHandler(func(ev viewer.ClickEvent) {
		common.Logger().Info("clicked", "shape", ev.ShapeID, "atom", ev.AtomIndex, "x", ev.X, "y", ev.Y)
	}))
	if err != nil {
		return err
	}

	if opts.screenshot != "" {
		shot := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
			defer cancel()
			if err := v.Flush(ctx); err != nil {
				return fmt.Errorf("view: wait for frame: %w", err)
			}
			return v.SaveImage(opts.screenshot)
		}
		if eng.Window() == nil {
			return shot()
		}
		// The window needs the main thread, so the screenshot is taken from a helper goroutine.
		go func() { errors.Log(shot()) }()
	}

	eng.Run()
	return nil
}
