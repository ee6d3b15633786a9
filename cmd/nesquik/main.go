// Command nesquik runs an NES ROM through the core, either in an SDL2
// window or headlessly for automated test-ROM checking.
package main

import (
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/nesquik/nescore/pkg/config"
	"github.com/nesquik/nescore/pkg/gui"
	"github.com/nesquik/nescore/pkg/logger"
	"github.com/nesquik/nescore/pkg/nes"
)

type coreFlags struct {
	PPUWarmupDelay bool   `help:"Suppress VBlank/NMI for ~29658 CPU cycles after reset, matching real hardware's power-on quirk." name:"ppu-warmup-delay"`
	SwapDutyCycles bool   `help:"Use the famiclone pulse-duty table (duty 1 and 2 swapped) instead of the standard NES table." name:"swap-duty-cycles"`
	SampleRate     int    `help:"Host audio sample rate in Hz." default:"44100" name:"sample-rate"`
	SaveDir        string `help:"Directory for battery-backed save files. Defaults to alongside the ROM." name:"save-dir"`
}

func (f coreFlags) options() config.Options {
	return config.Options{
		PPUWarmupDelay: f.PPUWarmupDelay,
		SwapDutyCycles: f.SwapDutyCycles,
		SampleRate:     f.SampleRate,
	}
}

var cli struct {
	LogLevel string `help:"Log verbosity (off, error, warn, info, debug, trace)." default:"info" name:"log-level"`

	Run struct {
		coreFlags
		AudioBackend string `help:"Audio output backend." enum:"sdl,portaudio" default:"sdl" name:"audio-backend"`
		ROM          string `arg:"" help:"Path to an iNES/NES 2.0 ROM image." type:"existingfile"`
	} `cmd:"" help:"Run a ROM in an SDL2 window."`

	Romtest struct {
		coreFlags
		Frames int    `help:"Number of frames to run before exiting." default:"600"`
		ROM    string `arg:"" help:"Path to an iNES/NES 2.0 ROM image." type:"existingfile"`
	} `cmd:"" help:"Run a ROM headlessly for a fixed number of frames, for automated test-ROM checking."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("nesquik"),
		kong.Description("An NES emulator core CLI."),
		kong.UsageOnError(),
	)

	applyLogLevel(cli.LogLevel)
	defer logger.Flush()

	switch ctx.Command() {
	case "run <rom>":
		ctx.FatalIfErrorf(runGUI(cli.Run.ROM, cli.Run.coreFlags, cli.Run.AudioBackend))
	case "romtest <rom>":
		ctx.FatalIfErrorf(runHeadless(cli.Romtest.ROM, cli.Romtest.coreFlags, cli.Romtest.Frames))
	default:
		ctx.Fatalf("unknown command %q", ctx.Command())
	}
}

// applyLogLevel maps our coarse log-level name onto glog's own flags
// (registered on the standard flag package at init time), since the core's
// pkg/logger is a thin wrapper over glog rather than its own leveled logger.
func applyLogLevel(level string) {
	goflag.Set("logtostderr", "true")

	switch level {
	case "off":
		goflag.Set("logtostderr", "false")
		goflag.Set("stderrthreshold", "FATAL")
	case "error":
		goflag.Set("stderrthreshold", "ERROR")
	case "warn":
		goflag.Set("stderrthreshold", "WARNING")
	case "debug":
		goflag.Set("v", "3")
	case "trace":
		goflag.Set("v", "4")
	case "info":
		// glog's default stderrthreshold=ERROR is too quiet for "info",
		// so pin it explicitly.
		goflag.Set("stderrthreshold", "INFO")
	default:
		logger.LogWarn("unknown log level %q, using info", level)
		goflag.Set("stderrthreshold", "INFO")
	}
}

func savePath(romPath, saveDir string) string {
	base := filepath.Base(romPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)] + ".sav"
	if saveDir != "" {
		return filepath.Join(saveDir, name)
	}
	return filepath.Join(filepath.Dir(romPath), name)
}

func loadSystem(romPath string, flags coreFlags) (*nes.System, error) {
	opts := flags.options()
	system := nes.New(
		nes.WithPPUWarmupDelay(opts.PPUWarmupDelay),
		nes.WithSwapDutyCycles(opts.SwapDutyCycles),
	)

	f, err := os.Open(romPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", romPath, err)
	}
	defer f.Close()

	if err := system.LoadROM(f, filepath.Base(romPath)); err != nil {
		return nil, fmt.Errorf("loading %s: %w", romPath, err)
	}

	sav := savePath(romPath, flags.SaveDir)
	if data, err := os.ReadFile(sav); err == nil {
		system.LoadBatteryRAM(data)
		logger.LogInfo("loaded save: %s", sav)
	}

	return system, nil
}

func saveSystem(system *nes.System, romPath string, flags coreFlags) {
	ram := system.SaveBatteryRAM()
	if ram == nil {
		return
	}
	sav := savePath(romPath, flags.SaveDir)
	if err := os.WriteFile(sav, ram, 0o644); err != nil {
		logger.LogError("failed to write save %s: %v", sav, err)
		return
	}
	logger.LogInfo("saved: %s", sav)
}

func runGUI(romPath string, flags coreFlags, audioBackend string) error {
	system, err := loadSystem(romPath, flags)
	if err != nil {
		return err
	}
	defer saveSystem(system, romPath, flags)

	sampleRate := flags.options().EffectiveSampleRate()

	win, err := gui.NewNESGUI(system, sampleRate, audioBackend)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Destroy()

	win.Run()
	return nil
}

func runHeadless(romPath string, flags coreFlags, frames int) error {
	system, err := loadSystem(romPath, flags)
	if err != nil {
		return err
	}
	defer saveSystem(system, romPath, flags)

	start := time.Now()
	for i := 0; i < frames; i++ {
		system.RunFrame()
		system.AudioSamples() // drain so it doesn't grow unbounded
	}
	elapsed := time.Since(start)

	logger.LogInfo("ran %d frames in %s (%.1f fps)", frames, elapsed, float64(frames)/elapsed.Seconds())
	return nil
}
