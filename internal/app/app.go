// Package app runs the per-frame loop that ties control input, audio energy, the
// automation bank and the preview renderer together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/guidoenr/spectralmesh/internal/analyzer"
	"github.com/guidoenr/spectralmesh/internal/audio"
	"github.com/guidoenr/spectralmesh/internal/audio/input"
	"github.com/guidoenr/spectralmesh/internal/automation"
	"github.com/guidoenr/spectralmesh/internal/config"
	"github.com/guidoenr/spectralmesh/internal/control"
	"github.com/guidoenr/spectralmesh/internal/control/midiin"
	"github.com/guidoenr/spectralmesh/internal/params"
	"github.com/guidoenr/spectralmesh/internal/render"
	"github.com/guidoenr/spectralmesh/internal/state"
	"github.com/guidoenr/spectralmesh/internal/web"
	"golang.org/x/term"
)

// Config configures the application runtime.
type Config struct {
	DeviceName  string
	DeviceIndex int
	MIDIName    string
	MIDIIndex   int
	BufferSize  int

	DisableAudio bool
	DisableMIDI  bool

	Width         int
	Height        int
	TargetFPS     float64
	ShowStatusBar bool
	Palette       string
	UseANSI       bool
	Window        bool

	SmoothFactor   float64
	LatchThreshold float64
	KickThreshold  float64
	QueueDepth     int
	NoiseFloor     float64

	// Sensitivity overrides the default audio gain when set; zero is a valid gain.
	Sensitivity *float64

	WebPort     int
	ProfilePath string

	// Settings is written back by SaveConfig; ConfigPath overrides its location.
	Settings   *config.Config
	ConfigPath string

	Log *log.Logger
}

// App owns every piece of frame-loop state. Only the loop goroutine touches the
// bank, state and synthesizer; the web panel reads telemetry under mu.
type App struct {
	cfg Config
	log *log.Logger

	bank       *automation.Bank
	state      *state.State
	dispatcher *state.Dispatcher
	synth      *params.Synthesizer
	kick       *audio.KickDetector
	offsets    params.Offsets

	capture  *input.Capture
	listener *midiin.Listener
	webQueue *control.Queue
	fake     *fakeGenerator
	analyzer *analyzer.Analyzer
	renderer *render.Renderer
	web      *web.Server
	prof     *profiler

	audioLabel string
	portLabel  string

	width        int
	height       int
	renderHeight int
	showHelp     bool
	last         time.Time

	reportedDrops  uint64
	reportedErrors uint64

	mu        sync.Mutex
	telemetry web.Telemetry
}

// New constructs the application. Missing audio or MIDI devices are logged and
// the corresponding input is disabled.
func New(cfg Config) (*App, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}
	renderHeight := cfg.Height
	if cfg.ShowStatusBar && !cfg.Window && renderHeight > 1 {
		renderHeight--
	}

	renderer, err := render.New(render.Options{
		Width:   cfg.Width,
		Height:  renderHeight,
		Palette: cfg.Palette,
		UseANSI: cfg.UseANSI,
		Window:  cfg.Window,
	})
	if err != nil {
		return nil, err
	}

	bank := automation.New()
	if cfg.SmoothFactor > 0 && cfg.SmoothFactor < 1 {
		bank.SmoothFactor = cfg.SmoothFactor
	}
	st := state.New()
	dispatcher := state.NewDispatcher(bank, st)
	if cfg.LatchThreshold > 0 {
		dispatcher.LatchThreshold = cfg.LatchThreshold
	}
	synth := params.NewSynthesizer(rand.New(rand.NewSource(time.Now().UnixNano())))
	if cfg.Sensitivity != nil {
		synth.Sensitivity = 0
		synth.AdjustSensitivity(*cfg.Sensitivity)
	}
	kickThreshold := cfg.KickThreshold
	if kickThreshold <= 0 {
		kickThreshold = audio.DefaultKickThreshold
	}

	app := &App{
		cfg:          cfg,
		log:          cfg.Log,
		bank:         bank,
		state:        st,
		dispatcher:   dispatcher,
		synth:        synth,
		kick:         audio.NewKickDetector(kickThreshold),
		webQueue:     control.NewQueue(cfg.QueueDepth),
		renderer:     renderer,
		width:        cfg.Width,
		height:       cfg.Height,
		renderHeight: renderHeight,
	}
	app.telemetry.Sensitivity = synth.Sensitivity

	app.openAudio()
	app.openMIDI()
	app.prof = newProfiler(cfg.ProfilePath, app.log)
	if cfg.WebPort > 0 {
		app.web = web.NewServer(app, app.webQueue, app.log)
	}
	app.last = time.Now()
	return app, nil
}

func (a *App) openAudio() {
	if a.cfg.DisableAudio {
		a.fake = newFakeGenerator(time.Now().UnixNano())
		a.log.Println("audio disabled, using synthetic generator")
		return
	}
	capture, err := input.NewCapture(input.Config{
		DeviceName:  a.cfg.DeviceName,
		DeviceIndex: a.cfg.DeviceIndex,
		BufferSize:  a.cfg.BufferSize,
		Channels:    2,
	})
	if err != nil {
		a.log.Printf("audio input unavailable, continuing without it: %v", err)
		return
	}
	a.capture = capture
	a.analyzer = analyzer.New(analyzer.Config{
		SampleRate: capture.SampleRate(),
		WindowSize: capture.Tap().Size(),
	})
	if info := capture.Device(); info != nil {
		a.audioLabel = info.Name
		a.log.Printf("audio capture started on %q @ %.0f Hz", info.Name, capture.SampleRate())
	} else {
		a.log.Printf("audio capture started @ %.0f Hz", capture.SampleRate())
	}
}

func (a *App) openMIDI() {
	if a.cfg.DisableMIDI {
		return
	}
	listener, err := midiin.Open(midiin.Config{
		Index: a.cfg.MIDIIndex,
		Name:  a.cfg.MIDIName,
		Depth: a.cfg.QueueDepth,
	})
	if err != nil {
		if errors.Is(err, midiin.ErrNoPorts) {
			a.log.Printf("no control surface found, continuing without MIDI")
		} else {
			a.log.Printf("control surface unavailable, continuing without MIDI: %v", err)
		}
		return
	}
	a.listener = listener
	a.portLabel = listener.PortName()
	a.log.Printf("listening to control surface %q", a.portLabel)
}

// Run starts the render loop until context cancellation or quit key.
func (a *App) Run(ctx context.Context) error {
	frameDuration := time.Duration(float64(time.Second) / a.cfg.TargetFPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.web != nil {
		go func() {
			if err := a.web.Start(loopCtx, a.cfg.WebPort); err != nil {
				a.log.Printf("web panel stopped: %v", err)
			}
		}()
	}

	terminal := !a.renderer.Windowed()
	if terminal {
		enterAltScreen()
		clearScreen()
		hideCursor()
		defer func() {
			showCursor()
			exitAltScreen()
		}()
	}

	keys := a.startInputListener(loopCtx)
	a.ensureDimensions()

	for {
		select {
		case <-ctx.Done():
			moveCursorHome()
			return ctx.Err()
		case ev, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if a.handleKey(ev) {
				moveCursorHome()
				return nil
			}
		case <-ticker.C:
			if err := a.step(); err != nil {
				if errors.Is(err, render.ErrRendererQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// Close releases held resources.
func (a *App) Close() error {
	var errs []error
	if a.listener != nil {
		errs = append(errs, a.listener.Close())
	}
	if a.capture != nil {
		errs = append(errs, a.capture.Close())
	}
	errs = append(errs, a.renderer.Close(), a.prof.Close())
	return errors.Join(errs...)
}

// update runs one automation tick: commands, bank, audio and synthesis.
func (a *App) update() (params.Snapshot, analyzer.Features) {
	if a.listener != nil {
		a.listener.Queue().Drain(a.dispatcher.Apply)
	}
	a.webQueue.Drain(a.dispatcher.Apply)
	a.prof.markSection("commands")

	a.bank.Tick()

	in, features := a.readAudio()
	a.prof.markSection("audio")

	snap := a.synth.Next(a.bank, a.offsets, in)
	a.prof.markSection("synth")
	return snap, features
}

func (a *App) readAudio() (params.AudioInput, analyzer.Features) {
	switch {
	case a.capture != nil:
		levels := a.capture.Energy().Levels()
		in := params.AudioInput{
			Enabled: true,
			Levels:  levels,
			Kick:    a.kick.Detect(levels.Bass),
		}
		features := a.analyzer.AnalyzeFrom(a.capture.Tap())
		return in, analyzer.Gate(features, a.cfg.NoiseFloor)
	case a.fake != nil:
		levels, features := a.fake.Next(1.0 / a.cfg.TargetFPS)
		return params.AudioInput{
			Enabled: true,
			Levels:  levels,
			Kick:    a.kick.Detect(levels.Bass),
		}, features
	}
	return params.AudioInput{}, analyzer.Features{}
}

func (a *App) step() error {
	a.prof.beginFrame()
	defer a.prof.endFrame()

	a.ensureDimensions()

	now := time.Now()
	delta := now.Sub(a.last).Seconds()
	if delta <= 0 {
		delta = 1.0 / a.cfg.TargetFPS
	}
	a.last = now

	snap, features := a.update()
	frame := a.renderer.Render(snap, a.state.Visuals, a.state.Transform)
	a.prof.markSection("render")

	dropped := a.droppedCommands()
	info := render.StatusInfo{
		Features:    features,
		FPS:         1.0 / delta,
		Step:        snap.Step,
		Recording:   a.bank.Recording(),
		Mesh:        meshLabel(a.state.Visuals),
		Sensitivity: a.synth.Sensitivity,
		Dropped:     dropped,
		Audio:       a.audioLabel,
		Port:        a.portLabel,
	}
	a.publish(info, snap)
	a.reportProblems(dropped)

	statusText := a.renderer.Status(info)
	if frame.Present != nil {
		return frame.Present(statusText)
	}

	var out strings.Builder
	out.WriteString("\x1b[H")
	lines := frame.Lines
	if a.showHelp {
		lines = overlayHelp(lines, a.width)
	}
	for _, line := range lines {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	if a.cfg.ShowStatusBar {
		out.WriteString(statusBar(statusText, a.width))
	}
	fmt.Print(out.String())
	a.prof.markSection("output")
	return nil
}

func (a *App) publish(info render.StatusInfo, snap params.Snapshot) {
	a.mu.Lock()
	a.telemetry = web.Telemetry{
		FPS:         info.FPS,
		Step:        info.Step,
		Recording:   info.Recording,
		Mesh:        info.Mesh,
		Sensitivity: info.Sensitivity,
		Dropped:     info.Dropped,
		Features:    info.Features,
		Snapshot:    snap,
	}
	a.mu.Unlock()
}

// Telemetry returns the latest published frame summary.
func (a *App) Telemetry() web.Telemetry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.telemetry
}

// SaveConfig writes the session settings, including the current sensitivity.
func (a *App) SaveConfig() (string, error) {
	a.mu.Lock()
	sensitivity := a.telemetry.Sensitivity
	a.mu.Unlock()

	settings := config.DefaultConfig()
	if a.cfg.Settings != nil {
		copied := *a.cfg.Settings
		settings = &copied
	}
	settings.Tuning.Sensitivity = sensitivity

	path := a.cfg.ConfigPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return "", fmt.Errorf("config path: %w", err)
		}
	}
	if err := settings.SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

func (a *App) droppedCommands() uint64 {
	dropped := a.webQueue.Dropped()
	if a.listener != nil {
		dropped += a.listener.Queue().Dropped()
	}
	return dropped
}

// reportProblems logs counters that real-time callbacks cannot log themselves.
func (a *App) reportProblems(dropped uint64) {
	if dropped != a.reportedDrops {
		a.log.Printf("command queue overflow: %d commands dropped so far", dropped)
		a.reportedDrops = dropped
	}
	if a.listener == nil {
		return
	}
	if count, last := a.listener.Errors(); count != a.reportedErrors {
		a.log.Printf("control surface error (%d total): %s", count, last)
		a.reportedErrors = count
	}
}

func meshLabel(v state.Visuals) string {
	if v.Mesh == state.MeshTriangles && v.Wireframe {
		return "wireframe"
	}
	return v.Mesh.String()
}

func (a *App) ensureDimensions() {
	if a.renderer.Windowed() {
		return
	}
	fd := int(os.Stdout.Fd())
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return
	}

	renderHeight := h
	if a.cfg.ShowStatusBar && renderHeight > 1 {
		renderHeight--
	}
	if w == a.width && h == a.height && renderHeight == a.renderHeight {
		return
	}

	a.width = w
	a.height = h
	a.renderHeight = renderHeight
	a.renderer.Resize(w, renderHeight)
}
