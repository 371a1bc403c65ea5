package main

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/quadray"
)

// runOffscreen renders the configured time window headless and saves
// every frame as a numbered PNG. Encoding runs concurrently with the
// next frame's trace; each save works on its own copy of the buffer.
func runOffscreen(cfg Config) error {
	sc, err := buildScene(cfg, cfg.Demo)
	if err != nil {
		return err
	}
	defer sc.Close()

	frames := cfg.Frames
	if frames < 0 {
		frames = 1
	}

	var g errgroup.Group
	g.SetLimit(2)

	tMs := float64(cfg.BeginMs)
	for n := range frames {
		if cfg.EndMs >= 0 && tMs > float64(cfg.EndMs) {
			break
		}
		if err := sc.Render(tMs / 1000); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}

		fr := sc.Frame()
		snap := make([]uint32, len(fr.Pix()))
		copy(snap, fr.Pix())
		w, h := fr.Width(), fr.Height()
		stride := fr.Stride()
		idx := cfg.SaveIndex + n

		g.Go(func() error {
			out, err := quadray.NewFrame(w, h, 1, nil)
			if err != nil {
				return err
			}
			for y := range h {
				copy(out.Row(y), snap[y*stride:y*stride+w])
			}
			return out.SavePNG(fmt.Sprintf("quadray%04d.png", idx))
		})

		tMs += float64(cfg.DeltaMs)
	}
	return g.Wait()
}
