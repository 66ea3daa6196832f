package config

import "gopkg.in/yaml.v3"

// Manifest represents the structure of the workspace.yaml file.
type Manifest struct {
	Version          int                   `yaml:"version"`
	Name             string                `yaml:"name"`
	SourcePreference string                `yaml:"source_preference"`
	Packages         map[string]PackageDTO `yaml:"packages"`
	Groups           map[string][]string   `yaml:"groups"`
	Overrides        []OverrideDTO         `yaml:"overrides"`
}

// PackageDTO represents one member package declaration.
type PackageDTO struct {
	BuildDeps []DependencyDTO `yaml:"build_deps"`
	RunDeps   []DependencyDTO `yaml:"run_deps"`
	Attrs     map[string]any  `yaml:"attrs"`
}

// DependencyDTO is a dependency entry. It accepts either a bare package name
// or a mapping with an optional platform restriction:
//
//	run_deps:
//	  - helper
//	  - name: gpu-accel
//	    platforms: [gpu]
type DependencyDTO struct {
	Name      string   `yaml:"name"`
	Platforms []string `yaml:"platforms"`
}

// UnmarshalYAML implements yaml.Unmarshaler for the scalar shorthand.
func (d *DependencyDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Name = node.Value
		d.Platforms = nil
		return nil
	}
	type plain DependencyDTO
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = DependencyDTO(p)
	return nil
}

// OverrideDTO is a declarative override rule from the manifest.
type OverrideDTO struct {
	Name              string         `yaml:"name"`
	Targets           []string       `yaml:"targets"`
	AddBuildDeps      []string       `yaml:"add_build_deps"`
	AddRunDeps        []string       `yaml:"add_run_deps"`
	SetAttrs          map[string]any `yaml:"set_attrs"`
	ExternalResources []string       `yaml:"external_resources"`
}

// LockFile represents the structure of the workspace.lock.yaml file.
type LockFile struct {
	Version  int                     `yaml:"version"`
	Packages map[string]LockEntryDTO `yaml:"packages"`
}

// LockEntryDTO pins one package.
type LockEntryDTO struct {
	Version string      `yaml:"version"`
	Sources []SourceDTO `yaml:"sources"`
	Hash    string      `yaml:"hash"`
}

// SourceDTO is one source reference of a lock entry.
type SourceDTO struct {
	Form string `yaml:"form"`
	Ref  string `yaml:"ref"`
}
