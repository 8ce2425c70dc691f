package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guidoenr/spectralmesh/internal/app"
	"github.com/guidoenr/spectralmesh/internal/audio/input"
	"github.com/guidoenr/spectralmesh/internal/config"
	"github.com/guidoenr/spectralmesh/internal/control/midiin"
	"github.com/guidoenr/spectralmesh/internal/render"
	"golang.org/x/term"
)

func main() {
	var (
		deviceName  = flag.String("audio-device", "", "PortAudio input device name (substring match)")
		deviceIndex = flag.Int("audio-index", -1, "PortAudio input device index from -list-devices (-1 = default)")
		midiPort    = flag.Int("midi-port", 0, "MIDI input port index from -list-devices")
		midiName    = flag.String("midi-name", "", "MIDI input port name (substring match, wins over -midi-port)")
		targetFPS   = flag.Float64("fps", 60, "Target frames per second")
		bufferSize  = flag.Int("buffer-size", 2048, "Audio frames per buffer")
		width       = flag.Int("width", 80, "Preview width (characters, or pixels with -window)")
		height      = flag.Int("height", 24, "Preview height (characters, or pixels with -window)")
		noAudio     = flag.Bool("no-audio", false, "Run with synthetic audio")
		noMIDI      = flag.Bool("no-midi", false, "Do not open a control surface")
		debug       = flag.Bool("debug", false, "Enable verbose logging")
		showStatus  = flag.Bool("status", true, "Display status bar")
		palette     = flag.String("palette", "default", "ASCII palette (default|blocks|dots|spark)")
		noColor     = flag.Bool("no-color", false, "Disable ANSI color output")
		window      = flag.Bool("window", false, "Preview in an SDL window (requires -tags sdl)")
		listDevs    = flag.Bool("list-devices", false, "List audio inputs and MIDI ports and exit")
		webPort     = flag.Int("web-port", 0, "Serve the web panel on this port (0 disables)")
		profilePath = flag.String("profile", "", "Append per-frame section timings to this CSV file")
		configPath  = flag.String("config", "", "Config file (default ~/.config/spectralmesh/config.yaml)")
		saveConfig  = flag.Bool("save-config", false, "Write the effective settings to the config file and exit")
	)

	flag.Parse()

	logger := log.New(os.Stdout, "[spectralmesh] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			logger.Fatalf("config path: %v", err)
		}
	}
	settings, err := config.LoadFrom(path)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// flags given on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "audio-device":
			settings.Audio.DeviceName = *deviceName
		case "audio-index":
			settings.Audio.DeviceIndex = *deviceIndex
		case "buffer-size":
			settings.Audio.BufferSize = *bufferSize
		case "no-audio":
			settings.Audio.Disabled = *noAudio
		case "midi-port":
			settings.MIDI.PortIndex = *midiPort
		case "midi-name":
			settings.MIDI.PortName = *midiName
		case "no-midi":
			settings.MIDI.Disabled = *noMIDI
		case "fps":
			settings.Display.FPS = *targetFPS
		case "palette":
			settings.Display.Palette = *palette
		case "web-port":
			settings.Display.WebPort = *webPort
		}
	})

	if *saveConfig {
		if err := settings.SaveTo(path); err != nil {
			logger.Fatalf("save config: %v", err)
		}
		fmt.Printf("settings written to %s\n", path)
		return
	}

	if *width <= 0 || *height <= 0 {
		logger.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}
	if settings.Display.FPS <= 0 {
		logger.Fatalf("fps must be positive (got %.2f)", settings.Display.FPS)
	}
	if settings.Audio.BufferSize <= 0 {
		logger.Fatalf("buffer-size must be positive (got %d)", settings.Audio.BufferSize)
	}
	if *window && !render.SupportsSDL() {
		logger.Fatalf("-window needs a binary built with -tags sdl")
	}

	if !*window {
		if fd := int(os.Stdout.Fd()); fd >= 0 {
			if w, h, err := term.GetSize(fd); err == nil {
				if w > 0 {
					*width = w
				}
				if h > 0 {
					*height = h
				}
			}
		}
	}

	needAudio := !settings.Audio.Disabled || *listDevs
	if needAudio {
		if err := input.Initialize(); err != nil {
			if !*listDevs {
				logger.Printf("failed to initialize PortAudio, continuing without audio: %v", err)
			} else {
				logger.Fatalf("failed to initialize PortAudio: %v", err)
			}
		} else {
			defer input.Terminate()
		}
	}
	if !settings.MIDI.Disabled || *listDevs {
		defer midiin.CloseDriver()
	}

	if *listDevs {
		listDevices(logger)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	appConfig := app.Config{
		DeviceName:     settings.Audio.DeviceName,
		DeviceIndex:    settings.Audio.DeviceIndex,
		MIDIName:       settings.MIDI.PortName,
		MIDIIndex:      settings.MIDI.PortIndex,
		BufferSize:     settings.Audio.BufferSize,
		DisableAudio:   settings.Audio.Disabled,
		DisableMIDI:    settings.MIDI.Disabled,
		Width:          *width,
		Height:         *height,
		TargetFPS:      settings.Display.FPS,
		ShowStatusBar:  *showStatus,
		Palette:        settings.Display.Palette,
		UseANSI:        !*noColor,
		Window:         *window,
		SmoothFactor:   settings.Tuning.SmoothFactor,
		LatchThreshold: settings.Tuning.LatchThreshold,
		KickThreshold:  settings.Tuning.KickThreshold,
		Sensitivity:    &settings.Tuning.Sensitivity,
		QueueDepth:     settings.Tuning.QueueDepth,
		WebPort:        settings.Display.WebPort,
		ProfilePath:    *profilePath,
		Settings:       settings,
		ConfigPath:     path,
		Log:            logger,
	}

	a, err := app.New(appConfig)
	if err != nil {
		logger.Fatalf("failed to create app: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return
		}
		logger.Printf("runtime error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
}

func listDevices(logger *log.Logger) {
	devices, err := input.ListDevices()
	if err != nil {
		logger.Printf("list audio devices: %v", err)
	}
	fmt.Printf("\n=== Audio Input Devices ===\n\n")
	if len(devices) == 0 {
		fmt.Println("  (none)")
	}
	for _, dev := range devices {
		marker := ""
		if dev.IsDefault {
			marker = " (default)"
		}
		fmt.Printf("  [%d] %s [%s]%s\n      inputs:%d sample:%.0f Hz\n",
			dev.Index, dev.Name, dev.HostAPI, marker, dev.Channels, dev.DefaultSampleHz)
	}

	fmt.Printf("\n=== MIDI Input Ports ===\n\n")
	ports := midiin.ListPorts()
	if len(ports) == 0 {
		fmt.Println("  (none)")
	}
	for i, name := range ports {
		fmt.Printf("  [%d] %s\n", i, name)
	}
}
