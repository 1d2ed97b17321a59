package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taigrr/splatview/pkg/config"
	"github.com/taigrr/splatview/pkg/fetch"
	"github.com/taigrr/splatview/pkg/viewer"
)

// localSceneID is the scene id given to files opened from disk.
const localSceneID = "local"

// source is what the viewer should show and where its bytes come from.
type source struct {
	cfg     viewer.Config
	fetcher viewer.Fetcher
	// path is set for local files; it is what --watch follows.
	path string
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig(o *options) (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.LoadDefault()
}

// resolve turns the command line into a viewer configuration. arg is either
// a local file or a scene id from the config; empty means the first scene.
func resolve(cmd *cobra.Command, o *options, arg string) (source, *config.Config, error) {
	fileCfg, err := loadConfig(o)
	if err != nil {
		return source{}, nil, fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cmd, o, fileCfg)
	if err := fileCfg.Validate(); err != nil {
		return source{}, nil, fmt.Errorf("invalid flags: %w", err)
	}

	var src source
	if fi, err := os.Stat(arg); arg != "" && err == nil && fi.Mode().IsRegular() {
		src, err = localSource(arg, o.orbit)
		if err != nil {
			return source{}, nil, err
		}
	} else {
		src, err = catalogSource(fileCfg, arg, o.resolution)
		if err != nil {
			return source{}, nil, err
		}
	}
	src.cfg.Settings = fileCfg.ViewerSettings()
	return src, fileCfg, nil
}

// applyFlagOverrides copies explicitly set flags over config file values.
func applyFlagOverrides(cmd *cobra.Command, o *options, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		c.ModelsBaseURL = o.baseURL
	}
	if flags.Changed("models-dir") {
		c.ModelsDir = o.modelsDir
	}
	if flags.Changed("resolution") {
		c.Resolution = o.resolution
	}
	if flags.Changed("aa") {
		c.Settings.Antialiased = o.antialias
	}
	if flags.Changed("alpha") {
		c.Settings.AlphaThreshold = o.alpha
	}
	if flags.Lookup("fps") != nil && flags.Changed("fps") {
		c.FPS = o.fps
	}
	if flags.Lookup("bg") != nil && flags.Changed("bg") {
		c.Background = o.bg
	}
}

// localSource reads path into inline bytes, the same way an uploaded file
// is handed to the viewer.
func localSource(path, orbit string) (source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return source{
		cfg: viewer.Config{
			Scene: viewer.SceneDescriptor{
				ID:    localSceneID,
				Name:  name,
				Orbit: viewer.OrbitCategory(orbit),
			},
			Asset: viewer.AssetDescriptor{
				Filename:    name,
				SizeBytes:   int64(len(data)),
				InlineBytes: data,
			},
		},
		path: path,
	}, nil
}

// catalogSource looks id up in the config and picks a fetcher for it.
func catalogSource(c *config.Config, id, resolution string) (source, error) {
	if id == "" {
		if len(c.Scenes) == 0 {
			return source{}, errors.New("no scene or file given and the config has no scenes")
		}
		id = c.Scenes[0].ID
	}
	vc, err := c.ViewerConfig(id, resolution)
	if err != nil {
		return source{}, err
	}
	f, err := fetcherFor(c)
	if err != nil {
		return source{}, err
	}
	return source{cfg: vc, fetcher: f}, nil
}

func fetcherFor(c *config.Config) (viewer.Fetcher, error) {
	switch {
	case c.ModelsDir != "":
		return fetch.Dir{Root: c.ModelsDir}, nil
	case c.ModelsBaseURL != "":
		return fetch.NewHTTP(c.ModelsBaseURL), nil
	}
	return nil, errors.New("no models_base_url or models_dir configured")
}
