package theme

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

type manifestFile struct {
	Name      string                 `yaml:"name"`
	Version   string                 `yaml:"version"`
	Tokens    map[string]string      `yaml:"tokens"`
	Templates map[string]string      `yaml:"templates"`
	Assets    assetsFile             `yaml:"assets"`
	Variants  map[string]variantFile `yaml:"variants"`
}

type variantFile struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    assetsFile        `yaml:"assets"`
}

type assetsFile struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

// ParseManifest decodes one YAML theme manifest.
func ParseManifest(data []byte) (*gotheme.Manifest, error) {
	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("theme: decode manifest: %w", err)
	}
	if strings.TrimSpace(file.Name) == "" {
		return nil, fmt.Errorf("theme: manifest name is required")
	}

	manifest := &gotheme.Manifest{
		Name:      strings.TrimSpace(file.Name),
		Version:   file.Version,
		Tokens:    file.Tokens,
		Templates: file.Templates,
		Assets:    gotheme.Assets{Prefix: file.Assets.Prefix, Files: file.Assets.Files},
	}
	if len(file.Variants) > 0 {
		manifest.Variants = make(map[string]gotheme.Variant, len(file.Variants))
		for name, variant := range file.Variants {
			manifest.Variants[name] = gotheme.Variant{
				Tokens:    variant.Tokens,
				Templates: variant.Templates,
				Assets:    gotheme.Assets{Prefix: variant.Assets.Prefix, Files: variant.Assets.Files},
			}
		}
	}
	return manifest, nil
}

// LoadFS reads every *.yaml / *.yml manifest at the root of fsys and
// registers it, in file name order.
func (c *Catalog) LoadFS(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("theme: read dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var loaded []string
	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return loaded, fmt.Errorf("theme: read %s: %w", entry.Name(), err)
		}
		manifest, err := ParseManifest(data)
		if err != nil {
			return loaded, fmt.Errorf("theme: %s: %w", entry.Name(), err)
		}
		if err := c.Register(manifest); err != nil {
			return loaded, err
		}
		loaded = append(loaded, manifest.Name)
	}
	return loaded, nil
}
