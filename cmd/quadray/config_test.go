package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if c.DeltaMs != 16 || c.Frames != -1 || c.WindowClass != 5 {
		t.Errorf("defaults = %+v", c)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quadray.toml")
	data := "demo = 2\nthreads = 4\nfsaa = true\nxres = 640\nyres = 400\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Demo != 2 || c.Threads != 4 || !c.Fsaa || c.Xres != 640 || c.Yres != 400 {
		t.Errorf("loaded = %+v", c)
	}
	// Unset keys keep their defaults.
	if c.DeltaMs != 16 {
		t.Errorf("DeltaMs = %d, want default 16", c.DeltaMs)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig("/no/such/file.toml"); err == nil {
		t.Error("missing config file: err = nil")
	}
}

func TestResolveWindowClass(t *testing.T) {
	c := defaultConfig()
	c.WindowClass = 5
	c.resolve()
	if c.Xres != 800 || c.Yres != 480 {
		t.Errorf("class 5 = %dx%d, want 800x480", c.Xres, c.Yres)
	}

	c = defaultConfig()
	c.WindowClass = 99
	c.resolve()
	if c.Xres != 1920 {
		t.Errorf("clamped class xres = %d, want 1920", c.Xres)
	}

	c = defaultConfig()
	c.Xres, c.Yres = 320, 200
	c.resolve()
	if c.Xres != 320 || c.Yres != 200 {
		t.Errorf("explicit resolution overridden: %dx%d", c.Xres, c.Yres)
	}

	c = defaultConfig()
	c.Xres = 1 << 20
	c.resolve()
	if c.Xres != 65535 {
		t.Errorf("xres clamp = %d, want 65535", c.Xres)
	}
}

func TestSimdWidth(t *testing.T) {
	tests := []struct {
		q, v, want int
	}{
		{2, 4, 8},
		{1, 4, 4},
		{4, 4, 16},
		{0, 0, 1},
	}
	for _, tt := range tests {
		c := defaultConfig()
		c.QuadFactor, c.VectorSize = tt.q, tt.v
		if got := c.simdWidth(); got != tt.want {
			t.Errorf("simdWidth(q=%d, v=%d) = %d, want %d", tt.q, tt.v, got, tt.want)
		}
	}
}

func TestRunUnrecognizedArgExitsClean(t *testing.T) {
	if code := run([]string{"-nonsense"}); code != 0 {
		t.Errorf("run with unrecognized arg = %d, want 0", code)
	}
}
