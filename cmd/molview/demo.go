package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"
	"github.com/Carmen-Shannon/oxy-mol/engine/viewer"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
)

type demoOptions struct {
	spheres    int
	frames     int
	manual     bool
	duration   time.Duration
	screenshot string
}

func newDemoCommand(root *rootOptions) *cobra.Command {
	opts := &demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Animate spheres orbiting a central sphere",
		Long: "Animate spheres orbiting a central sphere. By default the orbit is precomputed into frames " +
			"and replayed by the animation player with the configured interval, loops, and interpolation. " +
			"With --manual the scene is mutated in place on every tick instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(root, opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.spheres, "spheres", 8, "number of orbiting spheres")
	flags.IntVar(&opts.frames, "frames", 36, "frames per orbit for the animation player")
	flags.BoolVar(&opts.manual, "manual", false, "mutate the scene on every tick instead of playing frames")
	flags.DurationVar(&opts.duration, "duration", 3*time.Second, "how long a headless demo runs")
	flags.StringVarP(&opts.screenshot, "screenshot", "o", "", "save the last frame to this image file")
	return cmd
}

// orbitPosition places sphere i of n at phase in [0, 1) of its orbit.
func orbitPosition(i, n int, phase float64) mgl64.Vec3 {
	angle := 2*math.Pi*phase + 2*math.Pi*float64(i)/float64(n)
	radius := 4 + float64(i%3)
	tilt := 0.4 * float64(i%2*2-1)
	return mgl64.Vec3{radius * math.Cos(angle), radius * math.Sin(angle) * math.Sin(tilt), radius * math.Sin(angle) * math.Cos(tilt)}
}

func orbitColor(i, n int) common.Color {
	t := float64(i) / float64(max(n-1, 1))
	return common.RGB(0.2+0.8*t, 0.4, 1-0.8*t)
}

// buildOrbitScene creates the central sphere and n orbiting spheres at phase 0.
func buildOrbitScene(eng engine.Engine, n int) (scene.Scene, error) {
	sc := eng.NewScene("orbit")
	if err := sc.Add("sun", shape.MustSphere(mgl64.Vec3{}, 1.5, shape.WithColor(common.RGB(1, 0.8, 0.2)), shape.WithClickable(true))); err != nil {
		return nil, err
	}
	for i := range n {
		s := shape.MustSphere(orbitPosition(i, n, 0), 0.5, shape.WithColor(orbitColor(i, n)), shape.WithClickable(true))
		if err := sc.Add(planetID(i), s); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func planetID(i int) string { return fmt.Sprintf("planet-%d", i) }

// moveTo moves every orbiting sphere to phase.
func moveTo(sc scene.Scene, n int, phase float64) error {
	for i := range n {
		s := shape.MustSphere(orbitPosition(i, n, phase), 0.5, shape.WithColor(orbitColor(i, n)), shape.WithClickable(true))
		if err := sc.Update(planetID(i), s); err != nil {
			return err
		}
	}
	return nil
}

func runDemo(root *rootOptions, opts *demoOptions) error {
	if opts.spheres < 1 || opts.frames < 1 {
		return fmt.Errorf("demo: --spheres and --frames must be positive")
	}
	eng, err := root.newEngine()
	if err != nil {
		return err
	}
	defer eng.Quit()
	if eng.Window() == nil && opts.screenshot == "" {
		return fmt.Errorf("demo: --headless needs --screenshot")
	}

	sc, err := buildOrbitScene(eng, opts.spheres)
	if err != nil {
		return err
	}
	v, err := eng.Render(sc, viewer.WithClickHandler(func(ev viewer.ClickEvent) {
		common.Logger().Info("clicked", "shape", ev.ShapeID)
	}))
	if err != nil {
		return err
	}

	var stop func()
	if opts.manual {
		stop = startManual(eng, v, sc, opts)
	} else {
		if stop, err = startPlayer(eng, v, sc, opts); err != nil {
			return err
		}
	}

	if eng.Window() != nil {
		eng.Run()
		stop()
		return nil
	}

	time.Sleep(opts.duration)
	stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Flush(ctx); err != nil {
		return err
	}
	return v.SaveImage(opts.screenshot)
}

// startPlayer precomputes one orbit and plays it on v.
func startPlayer(eng engine.Engine, v viewer.Viewer, sc scene.Scene, opts *demoOptions) (func(), error) {
	frames := make([]scene.SnapshotSource, 0, opts.frames)
	for f := range opts.frames {
		if err := moveTo(sc, opts.spheres, float64(f)/float64(opts.frames)); err != nil {
			return nil, err
		}
		frames = append(frames, sc.Snapshot())
	}
	anim, err := eng.Animate(frames...)
	if err != nil {
		return nil, err
	}
	if err := anim.Play(v); err != nil {
		return nil, err
	}
	go func() {
		<-anim.Done()
		common.Logger().Info("demo finished", "updates", anim.Updates(), "err", anim.Err())
	}()
	return func() {
		anim.Stop()
		errors.Log(anim.Wait(context.Background()))
	}, nil
}

// startManual mutates sc on every tick and posts it to v.
func startManual(eng engine.Engine, v viewer.Viewer, sc scene.Scene, opts *demoOptions) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	period := eng.Config().Interval() * time.Duration(opts.frames)
	go func() {
		defer close(done)
		err := eng.Drive(ctx, func(elapsed time.Duration, tick int) bool {
			phase := math.Mod(elapsed.Seconds()/period.Seconds(), 1)
			if err := moveTo(sc, opts.spheres, phase); err != nil {
				common.Logger().Error("move", "err", err)
				return false
			}
			if err := v.Update(sc); err != nil {
				return false
			}
			if w := eng.Window(); w != nil && tick%30 == 0 {
				w.SetTitle(fmt.Sprintf("molview demo - tick %d, %d frames, %d dropped", tick, v.Frames(), v.Dropped()))
			}
			return true
		})
		if err != nil && ctx.Err() == nil {
			common.Logger().Warn("drive", "err", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
