// Package gui is the SDL2-backed desktop front end: a window, a
// streaming texture for the PPU framebuffer, an audio queue fed from the
// APU's mixer output, and keyboard-to-controller mapping. None of this
// is part of the emulation core, which never imports this package;
// cmd/nesquik's romtest subcommand runs the core headless without
// calling into it.
package gui

import (
	"fmt"
	"os"
	"runtime"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/nesquik/nescore/pkg/audiosink"
	"github.com/nesquik/nescore/pkg/controller"
	"github.com/nesquik/nescore/pkg/logger"
	"github.com/nesquik/nescore/pkg/nes"
)

const (
	WindowWidth  = 256 * 3
	WindowHeight = 240 * 3
	WindowTitle  = "nesquik"

	// TargetFPS is the real NTSC NES frame rate: 1789773 / 29780.5.
	TargetFPS = 60.0988
)

var FrameTime = time.Duration(16639267) * time.Nanosecond

// keyMap maps SDL keycodes to controller port-1 buttons.
var keyMap = map[sdl.Keycode]controller.Button{
	sdl.K_z:     controller.ButtonA,
	sdl.K_x:     controller.ButtonB,
	sdl.K_a:     controller.ButtonSelect,
	sdl.K_s:     controller.ButtonStart,
	sdl.K_UP:    controller.ButtonUp,
	sdl.K_DOWN:  controller.ButtonDown,
	sdl.K_LEFT:  controller.ButtonLeft,
	sdl.K_RIGHT: controller.ButtonRight,
}

// NESGUI is the SDL2 window driving a nes.System.
type NESGUI struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	system   *nes.System
	running  bool

	screenshotNum int

	sink       audiosink.Sink
	sampleRate int

	startTime  time.Time
	frameCount int

	fpsCounter int
	fpsTimer   time.Time
	currentFPS float64
	showFPS    bool
}

// NewNESGUI creates an SDL2 window and audio sink driving system.
// audioBackend selects the audiosink implementation ("sdl" or
// "portaudio"); an unrecognized value falls back to "sdl".
func NewNESGUI(system *nes.System, sampleRate int, audioBackend string) (*NESGUI, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, err
	}

	window, err := sdl.CreateWindow(
		WindowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		WindowWidth, WindowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, err
	}
	renderer.SetDrawBlendMode(sdl.BLENDMODE_NONE)

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, 256, 240)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, err
	}
	texture.SetBlendMode(sdl.BLENDMODE_NONE)

	g := &NESGUI{
		window:     window,
		renderer:   renderer,
		texture:    texture,
		system:     system,
		running:    true,
		sampleRate: sampleRate,
		startTime:  time.Now(),
		fpsTimer:   time.Now(),
		showFPS:    true,
	}

	if err := g.initAudio(audioBackend); err != nil {
		logger.LogError("audio init failed, continuing without sound: %v", err)
	}

	return g, nil
}

// Destroy releases SDL resources.
func (g *NESGUI) Destroy() {
	if g.sink != nil {
		g.sink.Close()
	}
	if g.texture != nil {
		g.texture.Destroy()
	}
	if g.renderer != nil {
		g.renderer.Destroy()
	}
	if g.window != nil {
		g.window.Destroy()
	}
	sdl.Quit()
}

// Run drives the main loop until the window is closed.
func (g *NESGUI) Run() {
	for g.running {
		g.handleEvents()
		g.system.RunFrame()
		g.queueAudio()
		g.updateFPS()
		g.render()

		g.frameCount++
		targetEnd := g.startTime.Add(time.Duration(g.frameCount) * FrameTime)
		if now := time.Now(); now.Before(targetEnd) {
			time.Sleep(targetEnd.Sub(now))
		}
	}
}

func (g *NESGUI) handleEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			g.running = false
		case *sdl.KeyboardEvent:
			g.handleKeyboard(e)
		}
	}
}

func (g *NESGUI) handleKeyboard(event *sdl.KeyboardEvent) {
	pressed := event.State == sdl.PRESSED

	if b, ok := keyMap[event.Keysym.Sym]; ok {
		g.system.SetButton(0, b, pressed)
		return
	}

	switch event.Keysym.Sym {
	case sdl.K_ESCAPE:
		g.running = false
	case sdl.K_F12:
		if pressed {
			g.saveScreenshot()
		}
	case sdl.K_F3:
		if pressed {
			g.showFPS = !g.showFPS
		}
	}
}

func (g *NESGUI) render() {
	framebuffer := g.system.Framebuffer()
	g.texture.Update(nil, unsafe.Pointer(&framebuffer[0]), 256*4)

	g.renderer.SetDrawColor(0, 0, 0, 255)
	g.renderer.Clear()
	g.renderer.Copy(g.texture, nil, nil)
	if g.showFPS {
		g.updateWindowTitle()
	}
	g.renderer.Present()
}

func (g *NESGUI) saveScreenshot() {
	filename := fmt.Sprintf("screenshot_%03d.raw", g.screenshotNum)
	g.screenshotNum++

	w, h, _ := g.renderer.GetOutputSize()
	pixels := make([]byte, w*h*4)
	if err := g.renderer.ReadPixels(nil, sdl.PIXELFORMAT_RGBA8888, unsafe.Pointer(&pixels[0]), int(w*4)); err != nil {
		logger.LogError("failed to read pixels: %v", err)
		return
	}

	file, err := os.Create(filename)
	if err != nil {
		logger.LogError("failed to create %s: %v", filename, err)
		return
	}
	defer file.Close()
	if _, err := file.Write(pixels); err != nil {
		logger.LogError("failed to write %s: %v", filename, err)
		return
	}
	logger.LogInfo("screenshot saved: %s", filename)
}

func (g *NESGUI) initAudio(audioBackend string) error {
	if audioBackend == "portaudio" {
		sink, err := audiosink.NewPortAudioSink(g.sampleRate)
		if err != nil {
			return err
		}
		g.sink = sink
		return nil
	}

	sink, err := audiosink.NewSDLSink(g.sampleRate)
	if err != nil {
		return err
	}
	g.sink = sink
	return nil
}

func (g *NESGUI) queueAudio() {
	if g.sink == nil {
		return
	}

	samples := g.system.AudioSamples()
	if len(samples) == 0 {
		return
	}

	if err := g.sink.QueueSamples(samples); err != nil {
		logger.LogError("queueing audio: %v", err)
	}
}

func (g *NESGUI) updateFPS() {
	g.fpsCounter++
	if elapsed := time.Since(g.fpsTimer); elapsed >= 500*time.Millisecond {
		g.currentFPS = float64(g.fpsCounter) / elapsed.Seconds()
		g.fpsCounter = 0
		g.fpsTimer = time.Now()
	}
}

func (g *NESGUI) updateWindowTitle() {
	g.window.SetTitle(fmt.Sprintf("%s - FPS: %.1f", WindowTitle, g.currentFPS))
}
