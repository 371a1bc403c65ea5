package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/quadray"
)

// app is the ebiten front-end: it feeds keyboard input into the scene,
// renders one frame per tick, and blits the framebuffer to the window.
type app struct {
	cfg  Config
	sc   *quadray.Scene
	demo int

	timeMs    float64
	lastLogMs float64
	frames    int
	saveIdx   int

	hideUI    bool
	offscreen bool
	logOn     bool
	state     bool

	// simdSel tracks the F7/F8 cycling position through the registered
	// backends.
	simdSel int

	buf []byte
}

// errQuit signals a clean exit out of ebiten's run loop.
var errQuit = fmt.Errorf("quit")

func runWindow(cfg Config) error {
	sc, err := buildScene(cfg, cfg.Demo)
	if err != nil {
		return err
	}
	a := &app{
		cfg:     cfg,
		sc:      sc,
		demo:    cfg.Demo,
		timeMs:  float64(cfg.BeginMs),
		saveIdx: cfg.SaveIndex,
		hideUI:  cfg.HideUI,
		logOn:   cfg.Log,
		buf:     make([]byte, cfg.Xres*cfg.Yres*4),
	}
	defer a.sc.Close()

	ebiten.SetWindowSize(cfg.Xres, cfg.Yres)
	ebiten.SetWindowTitle("quadray")
	if err := ebiten.RunGame(a); err != nil && err != errQuit {
		return err
	}
	return nil
}

// moveKeys maps held keys to camera actions.
var moveKeys = []struct {
	key ebiten.Key
	act quadray.Action
}{
	{ebiten.KeyW, quadray.ActMoveForward},
	{ebiten.KeyS, quadray.ActMoveBack},
	{ebiten.KeyA, quadray.ActMoveLeft},
	{ebiten.KeyD, quadray.ActMoveRight},
	{ebiten.KeyArrowLeft, quadray.ActRotLeft},
	{ebiten.KeyArrowRight, quadray.ActRotRight},
	{ebiten.KeyArrowUp, quadray.ActRotUp},
	{ebiten.KeyArrowDown, quadray.ActRotDown},
}

func (a *app) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}

	t := a.timeMs / 1000

	for _, mk := range moveKeys {
		if ebiten.IsKeyPressed(mk.key) {
			a.sc.Update(t, mk.act)
		}
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		a.state = !a.state
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		a.cfg.Fsaa = !a.cfg.Fsaa
		if a.cfg.Fsaa {
			a.sc.SetFsaa(quadray.Fsaa4x)
		} else {
			a.sc.SetFsaa(quadray.FsaaNo)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		a.sc.NextCamera()
	case inpututil.IsKeyJustPressed(ebiten.KeyF4):
		if _, err := a.sc.SaveFrame(a.saveIdx); err == nil {
			a.saveIdx++
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		a.logOn = !a.logOn
		if a.logOn {
			quadray.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		} else {
			quadray.SetLogger(nil)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF7), inpututil.IsKeyJustPressed(ebiten.KeyF8):
		// Cycle through the registered backends in registration order.
		sels := a.sc.SimdSelections()
		if len(sels) > 0 {
			a.simdSel = (a.simdSel + 1) % len(sels)
			_, _, _ = a.sc.SetSimd(sels[a.simdSel].Width, sels[a.simdSel].Variant)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		a.offscreen = !a.offscreen
	case inpututil.IsKeyJustPressed(ebiten.KeyF10):
		a.cfg.Static = !a.cfg.Static
		opts := quadray.DefaultOpts
		if a.cfg.Static {
			opts |= quadray.OptStatic
		}
		a.sc.SetOpts(opts)
	case inpututil.IsKeyJustPressed(ebiten.KeyF11):
		if err := a.nextDemo(); err != nil {
			return err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		a.hideUI = !a.hideUI
	}

	if err := a.sc.Render(t); err != nil {
		// A failed frame is logged and skipped; the scene stays valid.
		quadray.Logger().Warn("frame skipped", "err", err)
	}

	a.timeMs += float64(a.cfg.DeltaMs)
	a.frames++
	if a.logOn && a.cfg.LogMs > 0 && a.timeMs-a.lastLogMs >= float64(a.cfg.LogMs) {
		a.lastLogMs = a.timeMs
		quadray.Logger().Info("running", "fps", ebiten.ActualFPS(), "frames", a.frames)
	}
	if a.cfg.EndMs >= 0 && a.timeMs > float64(a.cfg.EndMs) {
		return errQuit
	}
	if a.cfg.Frames >= 0 && a.frames >= a.cfg.Frames {
		return errQuit
	}
	return nil
}

func (a *app) nextDemo() error {
	next := (a.demo + 1) % len(demos)
	sc, err := buildScene(a.cfg, next)
	if err != nil {
		return err
	}
	a.sc.Close()
	a.sc = sc
	a.demo = next
	return nil
}

func (a *app) Draw(screen *ebiten.Image) {
	if a.offscreen {
		return
	}
	fr := a.sc.Frame()
	if !a.hideUI {
		fr.DrawText(4, 14, fmt.Sprintf("fps %.1f", ebiten.ActualFPS()), 0xffffffff)
		if a.state {
			p := a.sc.CamPos()
			w, v := a.sc.Simd()
			fr.DrawText(4, 28, fmt.Sprintf("demo %d cam [%.1f %.1f %.1f] simd %d/%d thr %d",
				a.demo, p[0], p[1], p[2], w, v, a.sc.Threads()), 0xffffffff)
		}
	}
	for y := range fr.Height() {
		row := fr.Row(y)
		off := y * fr.Width() * 4
		for x, px := range row {
			i := off + x*4
			a.buf[i+0] = byte(px >> 16)
			a.buf[i+1] = byte(px >> 8)
			a.buf[i+2] = byte(px)
			a.buf[i+3] = 0xff
		}
	}
	screen.WritePixels(a.buf)
}

func (a *app) Layout(int, int) (int, int) {
	return a.cfg.Xres, a.cfg.Yres
}
