// Package config loads the splatview host configuration: where assets are
// served from, render settings and the scene catalog.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/splatview/pkg/math3d"
	"github.com/taigrr/splatview/pkg/viewer"
)

// DefaultPath is where the config is looked for when no path is given.
const DefaultPath = "~/.config/splatview/config.toml"

// Resolutions are the asset resolution labels, lowest first.
var Resolutions = []string{"low", "medium", "high", "full"}

// ErrUnknownScene is returned when a scene id is not in the catalog.
var ErrUnknownScene = errors.New("unknown scene")

// Config is the on-disk configuration.
type Config struct {
	ModelsBaseURL string   `toml:"models_base_url" yaml:"models_base_url"`
	ModelsDir     string   `toml:"models_dir" yaml:"models_dir"`
	FPS           int      `toml:"fps" yaml:"fps"`
	Background    string   `toml:"background" yaml:"background"`
	Resolution    string   `toml:"resolution" yaml:"resolution"`
	Settings      Settings `toml:"settings" yaml:"settings"`
	Scenes        []Scene  `toml:"scenes" yaml:"scenes"`
}

// Settings are the initial render settings.
type Settings struct {
	Antialiased    bool    `toml:"antialiased" yaml:"antialiased"`
	AlphaThreshold float64 `toml:"alpha_threshold" yaml:"alpha_threshold"`
}

// Vec is a 3-component vector written as an array.
type Vec [3]float64

func (v *Vec) ptr() *math3d.Vec3 {
	if v == nil {
		return nil
	}
	p := math3d.V3(v[0], v[1], v[2])
	return &p
}

// Scene is one catalog entry.
type Scene struct {
	ID       string  `toml:"id" yaml:"id"`
	Name     string  `toml:"name" yaml:"name"`
	Orbit    string  `toml:"orbit" yaml:"orbit"`
	Up       *Vec    `toml:"up" yaml:"up"`
	Position *Vec    `toml:"position" yaml:"position"`
	LookAt   *Vec    `toml:"look_at" yaml:"look_at"`
	Assets   []Asset `toml:"assets" yaml:"assets"`
}

// Asset is one served file of a scene at a given resolution.
type Asset struct {
	Resolution string `toml:"resolution" yaml:"resolution"`
	Filename   string `toml:"filename" yaml:"filename"`
	Fallback   string `toml:"fallback" yaml:"fallback"`
	Size       int64  `toml:"size" yaml:"size"`
}

// Default returns a config with no scenes.
func Default() *Config {
	return &Config{
		FPS:        30,
		Background: "#1a1a1a",
		Resolution: "medium",
		Settings:   Settings{AlphaThreshold: 1},
	}
}

// Load reads the config at path, picking the format from its extension
// (.toml, .yaml or .yml). A leading ~ is expanded. Unset fields keep their
// defaults.
func Load(path string) (*Config, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(filepath.Ext(p), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return cfg, nil
}

// LoadDefault loads DefaultPath, returning Default if it does not exist.
func LoadDefault() (*Config, error) {
	cfg, err := Load(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes data in the format named by ext and validates it.
func Parse(ext string, data []byte) (*Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values the viewer cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.FPS < 0 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d out of range [0, 240]", c.FPS))
	}
	if _, err := ParseColor(c.Background); err != nil {
		errs = append(errs, err)
	}
	if c.Resolution != "" && !slices.Contains(Resolutions, c.Resolution) {
		errs = append(errs, fmt.Errorf("unknown resolution %q", c.Resolution))
	}
	if t := c.Settings.AlphaThreshold; math.IsNaN(t) || t < 0 || t > 10 {
		errs = append(errs, fmt.Errorf("alpha_threshold %g out of range [0, 10]", t))
	}
	seen := make(map[string]bool)
	for i, s := range c.Scenes {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("scene %d: missing id", i))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("scene %q: duplicate id", s.ID))
		}
		seen[s.ID] = true
		if len(s.Assets) == 0 {
			errs = append(errs, fmt.Errorf("scene %q: no assets", s.ID))
		}
		for _, a := range s.Assets {
			if a.Filename == "" {
				errs = append(errs, fmt.Errorf("scene %q: asset without filename", s.ID))
			}
		}
	}
	return errors.Join(errs...)
}

// Scene returns the scene with id.
func (c *Config) Scene(id string) (Scene, error) {
	for _, s := range c.Scenes {
		if s.ID == id {
			return s, nil
		}
	}
	return Scene{}, fmt.Errorf("%w %q", ErrUnknownScene, id)
}

// ViewerSettings returns the initial viewer settings.
func (c *Config) ViewerSettings() viewer.Settings {
	return viewer.Settings{
		Antialiased:    c.Settings.Antialiased,
		AlphaThreshold: c.Settings.AlphaThreshold,
	}
}

// ViewerConfig builds the viewer configuration for scene id at resolution.
// An empty resolution uses the config default.
func (c *Config) ViewerConfig(id, resolution string) (viewer.Config, error) {
	s, err := c.Scene(id)
	if err != nil {
		return viewer.Config{}, err
	}
	if resolution == "" {
		resolution = c.Resolution
	}
	return viewer.Config{
		Scene:    s.Descriptor(),
		Asset:    s.Asset(resolution).Descriptor(),
		Settings: c.ViewerSettings(),
	}, nil
}

// Descriptor converts the scene to a viewer scene descriptor.
func (s Scene) Descriptor() viewer.SceneDescriptor {
	return viewer.SceneDescriptor{
		ID:    s.ID,
		Name:  s.Name,
		Orbit: viewer.OrbitCategory(s.Orbit),
		Hints: viewer.CameraHints{
			Up:       s.Up.ptr(),
			Position: s.Position.ptr(),
			LookAt:   s.LookAt.ptr(),
		},
	}
}

// Asset returns the asset for resolution. If the scene has none at that
// resolution, the closest lower one is used, then the lowest available.
func (s Scene) Asset(resolution string) Asset {
	if len(s.Assets) == 0 {
		return Asset{}
	}
	want := slices.Index(Resolutions, resolution)
	best, bestRank := -1, -1
	for i, a := range s.Assets {
		if a.Resolution == resolution {
			return a
		}
		r := slices.Index(Resolutions, a.Resolution)
		if r <= want && r > bestRank {
			best, bestRank = i, r
		}
	}
	if best >= 0 {
		return s.Assets[best]
	}
	return s.Assets[0]
}

// Descriptor converts the asset to a viewer asset descriptor.
func (a Asset) Descriptor() viewer.AssetDescriptor {
	return viewer.AssetDescriptor{
		Filename:         a.Filename,
		FallbackFilename: a.Fallback,
		SizeBytes:        a.Size,
	}
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
