package main

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink/router"
)

// Scene describes a screen tree for the simulator.
//
//	root = "home"
//	root_delay = "200ms"
//
//	[[screens]]
//	name = "home"
//
//	[[screens]]
//	name = "game"
//	parent = "home"
//	pattern = ":id"
type Scene struct {
	Root      string        `toml:"root"`
	RootDelay duration      `toml:"root_delay"`
	Screens   []SceneScreen `toml:"screens"`
}

// SceneScreen is one screen in the tree.
type SceneScreen struct {
	Name    string `toml:"name"`
	Parent  string `toml:"parent"`
	Pattern string `toml:"pattern"` // Defaults to Name
	Locked  bool   `toml:"locked"`  // Refuses dismissal
	Fails   bool   `toml:"fails"`   // Declines presentation
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (s SceneScreen) segment() string {
	if s.Pattern != "" {
		return s.Pattern
	}
	return s.Name
}

// LoadScene decodes and validates a scene file.
func LoadScene(path string) (*Scene, error) {
	var sc Scene
	if _, err := toml.DecodeFile(path, &sc); err != nil {
		return nil, fmt.Errorf("load scene %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("load scene %s: %w", path, err)
	}
	return &sc, nil
}

// ParseScene decodes and validates a scene from TOML text.
func ParseScene(data string) (*Scene, error) {
	var sc Scene
	if _, err := toml.Decode(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks names are unique, parents exist and the root has no parent.
func (sc *Scene) Validate() error {
	if sc.Root == "" {
		return errors.New("scene: root is required")
	}

	names := make(map[string]SceneScreen, len(sc.Screens))
	for _, s := range sc.Screens {
		if s.Name == "" {
			return errors.New("scene: screen without name")
		}
		if _, dup := names[s.Name]; dup {
			return fmt.Errorf("scene: duplicate screen %q", s.Name)
		}
		names[s.Name] = s
	}

	root, ok := names[sc.Root]
	if !ok {
		return fmt.Errorf("scene: root screen %q not defined", sc.Root)
	}
	if root.Parent != "" {
		return fmt.Errorf("scene: root screen %q must not have a parent", sc.Root)
	}

	for _, s := range sc.Screens {
		if s.Name == sc.Root {
			continue
		}
		if s.Parent == "" {
			return fmt.Errorf("scene: screen %q has no parent", s.Name)
		}
		if _, ok := names[s.Parent]; !ok {
			return fmt.Errorf("scene: screen %q has unknown parent %q", s.Name, s.Parent)
		}
	}
	return nil
}

// RootSegment is the segment the root screen registers under.
func (sc *Scene) RootSegment() string {
	for _, s := range sc.Screens {
		if s.Name == sc.Root {
			return s.segment()
		}
	}
	return sc.Root
}

// Build creates a router for the scene and returns the root's screen id.
func (sc *Scene) Build() (*router.Router, router.Screen) {
	r := router.New()
	ids := make(map[string]router.Screen, len(sc.Screens))
	for i, s := range sc.Screens {
		ids[s.Name] = router.Screen(i)
	}

	for _, s := range sc.Screens {
		id := ids[s.Name]
		name := s.Name
		if s.Fails {
			r.Register(id, func(router.Params) (any, error) {
				return nil, fmt.Errorf("screen %s unavailable", name)
			})
		} else {
			r.Register(id, func(p router.Params) (any, error) {
				return maps.Clone(p), nil
			})
		}
		if s.Locked {
			r.Lock(id)
		}
		if s.Name != sc.Root {
			r.Route(ids[s.Parent], s.segment(), id)
		}
	}
	return r, ids[sc.Root]
}
