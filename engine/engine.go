package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/animation"
	"github.com/Carmen-Shannon/oxy-mol/engine/config"
	"github.com/Carmen-Shannon/oxy-mol/engine/loader"
	"github.com/Carmen-Shannon/oxy-mol/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
	"github.com/Carmen-Shannon/oxy-mol/engine/viewer"
	"github.com/Carmen-Shannon/oxy-mol/engine/window"

	"cogentcore.org/core/base/errors"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// engine implements the Engine interface.
// Coordinates the window thread, the tick loop, and every viewer opened through it.
type engine struct {
	cfg    *config.Config
	loader loader.Loader
	clk    clock.Clock

	headless bool
	window   window.Window
	surface  *viewer.WindowSurface

	profilingEnabled bool

	tickRate     time.Duration
	tickCallback func(deltaTime float32)

	mu      sync.Mutex
	viewers map[uuid.UUID]viewer.Viewer

	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine is the host-facing entry point. It owns the configuration, the structure loader,
// and the display surface, and hands out scenes, viewers, and animations configured from them.
//
// An Engine with a window must be created and Run on the main goroutine. A headless engine
// gives every viewer its own off-screen surface.
type Engine interface {
	// Config returns the configuration the engine was built with.
	//
	// Returns:
	//   - *config.Config: the configuration
	Config() *config.Config

	// Loader returns the structure loader.
	//
	// Returns:
	//   - loader.Loader: the loader configured from the loader section of the config
	Loader() loader.Loader

	// Window returns the window, or nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// NewScene creates a scene with the configured scale, recenter point, and background.
	// Options are applied after the configured ones.
	//
	// Parameters:
	//   - name: the scene name
	//   - options: scene options
	//
	// Returns:
	//   - scene.Scene: the new scene
	NewScene(name string, options ...scene.SceneBuilderOption) scene.Scene

	// LoadScene loads structure files into a new scene, one shape per protein or molecule.
	// Ids are the file base name, with a /N suffix for files holding several molecules.
	// Files that partially fail contribute their good shapes; the errors are joined.
	//
	// Parameters:
	//   - name: the scene name
	//   - paths: mmCIF or SDF files, optionally gzipped
	//
	// Returns:
	//   - scene.Scene: the scene
	//   - error: the joined load errors, or nil
	LoadScene(name string, paths ...string) (scene.Scene, error)

	// Render opens a viewer on src. With a window the viewer draws into it, and only one
	// viewer at a time may; headless viewers get their own surface each.
	//
	// Parameters:
	//   - src: the Scene or Snapshot to show
	//   - options: viewer options applied after the configured ones
	//
	// Returns:
	//   - viewer.Viewer: the viewer
	//   - error: viewer.ErrSurfaceBusy if the window already has a viewer
	Render(src scene.SnapshotSource, options ...viewer.ViewerBuilderOption) (viewer.Viewer, error)

	// Animate creates a frame animation with the configured interval, loops, and interpolation.
	//
	// Parameters:
	//   - frames: the frames in order
	//
	// Returns:
	//   - animation.Animation: the idle animation
	//   - error: an error if the configured playback settings are invalid
	Animate(frames ...scene.SnapshotSource) (animation.Animation, error)

	// AnimateLive creates a live animation that calls gen at the configured interval.
	//
	// Parameters:
	//   - gen: the snapshot generator
	//
	// Returns:
	//   - animation.Animation: the idle animation
	//   - error: an error if the configured interval is invalid
	AnimateLive(gen animation.Generator) (animation.Animation, error)

	// Drive runs fn at the configured animation interval until it returns false, ctx is done,
	// or the engine quits. It is the manual counterpart of Animate for mutate-and-update loops.
	//
	// Parameters:
	//   - ctx: stops driving when done
	//   - fn: the tick callback
	//
	// Returns:
	//   - error: the context error if driving was interrupted
	Drive(ctx context.Context, fn animation.TickFunc) error

	// Viewers returns the live viewers.
	//
	// Returns:
	//   - []viewer.Viewer: the viewers
	Viewers() []viewer.Viewer

	// EnableProfiler makes viewers opened from now on log frame statistics.
	EnableProfiler()

	// DisableProfiler stops profiling for viewers opened from now on.
	DisableProfiler()

	// SetTickRate sets the tick callback rate in ticks per second. It applies from the next Run.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called on every engine tick while Run is active.
	//
	// Parameters:
	//   - callback: the function, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Run pumps window events until the window closes, or blocks until Quit for a headless
	// engine. It then closes every viewer.
	Run()

	// Quit closes every viewer and the window, and makes Run return.
	// Safe to call from any goroutine and more than once.
	Quit()
}

// NewEngine creates an Engine. Unless the engine is headless a window is created, so the
// call must happen on the main goroutine.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if the configuration is invalid or the window could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:         config.DefaultConfig(),
		clk:         clock.New(),
		tickRate:    time.Second / 60,
		viewers:     make(map[uuid.UUID]viewer.Viewer),
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	e.headless = e.headless || e.cfg.Window.Headless
	e.profilingEnabled = e.profilingEnabled || e.cfg.Viewer.Profiling

	if e.loader == nil {
		e.loader = loader.NewLoader(loaderOptions(e.cfg)...)
	}

	if !e.headless {
		if err := e.openWindow(); err != nil {
			return nil, err
		}
	}
	common.Logger().Info("engine created", "headless", e.headless, "width", e.cfg.Window.Width, "height", e.cfg.Window.Height)
	return e, nil
}

func loaderOptions(cfg *config.Config) []loader.LoaderBuilderOption {
	policy := loader.BondPolicyInfer
	if strings.EqualFold(cfg.Loader.BondPolicy, "explicit") {
		policy = loader.BondPolicyExplicitOnly
	}
	parser := []loader.ParserOption{
		loader.WithBondPolicy(policy),
		loader.WithSkipMalformed(cfg.Loader.SkipMalformed),
	}
	if cfg.Loader.BondTolerance > 0 {
		parser = append(parser, loader.WithBondTolerance(cfg.Loader.BondTolerance))
	}
	return []loader.LoaderBuilderOption{
		loader.WithParserOptions(parser...),
		loader.WithCentered(cfg.Loader.Centered),
	}
}

func (e *engine) openWindow() error {
	if e.window == nil {
		w, err := window.NewWindow(
			window.WithTitle(common.Coalesce(e.cfg.Window.Title, "oxy-mol")),
			window.WithSize(e.cfg.Window.Width, e.cfg.Window.Height),
			window.WithSizeLimits(320, 240, 0, 0),
		)
		if err != nil {
			return fmt.Errorf("engine: open window: %w", err)
		}
		e.window = w
	}

	mode := renderer.PresentModeVSync
	if !e.cfg.Window.VSync {
		mode = renderer.PresentModeUncapped
	}
	surface, err := viewer.NewWindowSurface(e.window, e.cfg.Window.FallbackAdapter, mode)
	if err != nil {
		return errors.Join(fmt.Errorf("engine: window surface: %w", err), e.window.Close())
	}
	e.surface = surface
	return nil
}

func (e *engine) Config() *config.Config { return e.cfg }
func (e *engine) Loader() loader.Loader  { return e.loader }
func (e *engine) Window() window.Window  { return e.window }

func (e *engine) NewScene(name string, options ...scene.SceneBuilderOption) scene.Scene {
	opts := []scene.SceneBuilderOption{scene.WithScale(e.cfg.Scene.Scale)}
	if p, ok := e.cfg.RecenterPoint(); ok {
		opts = append(opts, scene.WithRecenter(p))
	}
	if bg, err := e.cfg.Background(); err == nil {
		opts = append(opts, scene.WithBackground(bg))
	}
	return scene.NewScene(name, append(opts, options...)...)
}

func (e *engine) LoadScene(name string, paths ...string) (scene.Scene, error) {
	sc := e.NewScene(name)
	var errs []error
	for _, path := range paths {
		shapes, err := e.loader.Load(path)
		if err != nil {
			errs = append(errs, err)
		}
		base := strings.TrimSuffix(filepath.Base(path), ".gz")
		base = strings.TrimSuffix(base, filepath.Ext(base))
		for i, sh := range shapes {
			id := base
			if len(shapes) > 1 {
				id = fmt.Sprintf("%s/%d", base, i)
			}
			if err := sc.Add(id, sh); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return sc, errors.Join(errs...)
}

func (e *engine) Render(src scene.SnapshotSource, options ...viewer.ViewerBuilderOption) (viewer.Viewer, error) {
	select {
	case <-e.quitChannel:
		return nil, viewer.ErrViewerClosed
	default:
	}

	var surface viewer.Surface
	if e.surface != nil {
		surface = e.surface
	} else {
		surface = viewer.NewHeadlessSurface(e.cfg.Window.Width, e.cfg.Window.Height)
	}

	rendererOptions := []renderer.RendererBuilderOption{renderer.WithDepthCue(e.cfg.Viewer.DepthCue)}
	if e.cfg.Viewer.Workers > 0 {
		rendererOptions = append(rendererOptions, renderer.WithWorkers(e.cfg.Viewer.Workers))
	}
	opts := []viewer.ViewerBuilderOption{
		viewer.WithFrameLimit(e.cfg.Viewer.FrameLimit),
		viewer.WithClickBuffer(e.cfg.Viewer.ClickBuffer),
		viewer.WithProfiling(e.profilingEnabled),
		viewer.WithRendererOptions(rendererOptions...),
	}
	v, err := viewer.Render(src, surface, append(opts, options...)...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.viewers[v.ID()] = v
	e.mu.Unlock()
	go func() {
		<-v.Done()
		e.mu.Lock()
		delete(e.viewers, v.ID())
		e.mu.Unlock()
	}()
	return v, nil
}

func (e *engine) Animate(frames ...scene.SnapshotSource) (animation.Animation, error) {
	return animation.NewAnimation(
		animation.WithInterval(e.cfg.Interval()),
		animation.WithLoops(int(e.cfg.Animation.Loops)),
		animation.WithInterpolation(e.cfg.Animation.Interpolate),
		animation.WithSubdivisions(e.cfg.Animation.Subdivisions),
		animation.WithClock(e.clk),
		animation.WithFrames(frames...),
	)
}

func (e *engine) AnimateLive(gen animation.Generator) (animation.Animation, error) {
	return animation.NewLiveAnimation(gen,
		animation.WithInterval(e.cfg.Interval()),
		animation.WithClock(e.clk),
	)
}

func (e *engine) Drive(ctx context.Context, fn animation.TickFunc) error {
	ctx, cancel := e.withQuit(ctx)
	defer cancel()
	return animation.Drive(ctx, e.clk, e.cfg.Interval(), fn)
}

// withQuit derives a context that also ends when the engine quits.
func (e *engine) withQuit(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-e.quitChannel:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (e *engine) Viewers() []viewer.Viewer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]viewer.Viewer, 0, len(e.viewers))
	for _, v := range e.viewers {
		out = append(out, v)
	}
	return out
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	e.tickRate = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) Run() {
	e.wg.Add(1)
	go e.handleEngine()

	if e.surface != nil {
		e.surface.Run()
		e.Quit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		for _, v := range e.Viewers() {
			errors.Log(v.Close())
		}
		if e.surface != nil {
			select {
			case <-e.surface.Done():
			default:
				e.surface.Close()
			}
		}
		common.Logger().Info("engine quit")
	})
}

// handleEngine fires the tick callback at the tick rate until quit.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("tick goroutine recovered from panic", "panic", r)
			e.Quit()
		}
	}()
	if e.tickCallback == nil {
		return
	}

	ctx, cancel := e.withQuit(context.Background())
	defer cancel()
	last := time.Duration(0)
	err := animation.Drive(ctx, e.clk, e.tickRate, func(elapsed time.Duration, tick int) bool {
		if tick == 0 {
			return true
		}
		dt := float32((elapsed - last).Seconds())
		last = elapsed
		e.tickCallback(dt)
		return true
	})
	if !errors.Is(err, context.Canceled) {
		errors.Log(err)
	}
}
