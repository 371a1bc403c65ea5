package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config mirrors the command-line surface so a TOML file can preset it.
// Flags given on the command line override file values.
type Config struct {
	Demo      int `toml:"demo"`
	Camera    int `toml:"camera"`
	Frames    int `toml:"frames"`
	DeltaMs   int `toml:"delta_ms"`
	SaveIndex int `toml:"save_index"`
	BeginMs   int `toml:"begin_ms"`
	EndMs     int `toml:"end_ms"`

	QuadFactor int `toml:"quad_factor"`
	Subvariant int `toml:"subvariant"`
	VectorSize int `toml:"vector_size"`
	Threads    int `toml:"threads"`

	WindowClass int `toml:"window_class"`
	Xres        int `toml:"xres"`
	Yres        int `toml:"yres"`
	LogMs       int `toml:"log_ms"`

	Log       bool `toml:"log"`
	HideUI    bool `toml:"hide_ui"`
	Offscreen bool `toml:"offscreen"`
	Static    bool `toml:"static"`
	Fsaa      bool `toml:"fsaa"`
}

// defaultConfig returns the built-in settings: demo 0 at 800x480, one
// frame delta of 16 ms, dynamic updates, UI shown.
func defaultConfig() Config {
	return Config{
		Frames:     -1,
		DeltaMs:    16,
		EndMs:      -1,
		QuadFactor: 2,
		Subvariant: 1,
		VectorSize: 4,
		WindowClass: 5,
		LogMs:      1000,
	}
}

// loadConfig merges a TOML file over the defaults.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	if _, err := os.Stat(path); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// windowSizes maps the -w window size class to a resolution.
var windowSizes = [10][2]int{
	{320, 200}, {400, 240}, {512, 320}, {640, 400}, {720, 450},
	{800, 480}, {1024, 640}, {1280, 800}, {1536, 960}, {1920, 1200},
}

// resolve fills the derived fields: resolution from the window class
// when -x/-y are absent, and the packet width from the SIMD factors.
func (c *Config) resolve() {
	if c.WindowClass < 0 {
		c.WindowClass = 0
	}
	if c.WindowClass > 9 {
		c.WindowClass = 9
	}
	if c.Xres <= 0 {
		c.Xres = windowSizes[c.WindowClass][0]
	}
	if c.Yres <= 0 {
		c.Yres = windowSizes[c.WindowClass][1]
	}
	if c.Xres > 65535 {
		c.Xres = 65535
	}
	if c.Yres > 65535 {
		c.Yres = 65535
	}
	if c.Threads > 1000 {
		c.Threads = 1000
	}
}

// simdWidth derives the requested packet width from the quad factor and
// vector size, both in {1,2,4,8}.
func (c *Config) simdWidth() int {
	w := c.QuadFactor * c.VectorSize
	if w < 1 {
		w = 1
	}
	return w
}
