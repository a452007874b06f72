package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	gameConfigFile    = "game.config"
	configExt         = ".config"
	templateExt       = ".template"
	sceneExt          = ".scene"
	templatesDirName  = "actor_templates"
	scenesDirName     = "scenes"
	componentsDirName = "component_types"
)

// Resources is the game content loaded once at startup: the merged game
// configuration and every actor template document.
type Resources struct {
	Dir          string
	Game         *Document
	InitialScene string
	Templates    map[string]*Document
}

// LoadResources loads the resources directory. A missing directory, a
// missing game.config or an unspecified initial_scene is an error.
func LoadResources(dir string) (*Resources, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("%w: resources directory %s", ErrMissing, dir)
	}
	if _, err := os.Stat(filepath.Join(dir, gameConfigFile)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, filepath.Join(dir, gameConfigFile))
	}

	game, err := loadConfigs(dir)
	if err != nil {
		return nil, err
	}
	initial, ok := game.OptString("initial_scene")
	if !ok || initial == "" {
		return nil, fmt.Errorf("%w: initial_scene unspecified", ErrMissing)
	}

	templates, err := loadTemplates(filepath.Join(dir, templatesDirName))
	if err != nil {
		return nil, err
	}

	return &Resources{
		Dir:          dir,
		Game:         game,
		InitialScene: initial,
		Templates:    templates,
	}, nil
}

// loadConfigs merges every *.config file in dir, in file name order.
func loadConfigs(dir string) (*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	merged := &Document{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != configExt {
			continue
		}
		doc, err := LoadDocument(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		merged.Merge(doc)
	}
	return merged, nil
}

// loadTemplates parses every *.template in dir concurrently. A missing
// directory means no templates.
func loadTemplates(dir string) (map[string]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*Document{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != templateExt {
			continue
		}
		names = append(names, entry.Name())
	}

	docs := make([]*Document, len(names))
	var g errgroup.Group
	g.SetLimit(8)
	for i, name := range names {
		g.Go(func() error {
			doc, err := LoadDocument(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Document, len(names))
	for i, name := range names {
		out[strings.TrimSuffix(name, templateExt)] = docs[i]
	}
	return out, nil
}

// ComponentTypesDir is where component type scripts live.
func (r *Resources) ComponentTypesDir() string {
	return filepath.Join(r.Dir, componentsDirName)
}

// LoadScene reads scenes/<name>.scene.
func (r *Resources) LoadScene(name string) (*Document, error) {
	path := filepath.Join(r.Dir, scenesDirName, name+sceneExt)
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	return doc, nil
}
