package composefile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Service is the slice of a compose service definition this tool cares
// about.
type Service struct {
	Image         string `yaml:"image"`
	ContainerName string `yaml:"container_name"`
}

// File is a parsed compose definition.
type File struct {
	Services map[string]Service `yaml:"services"`
}

// Parse reads a compose file from disk.
func Parse(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Services) == 0 {
		return File{}, fmt.Errorf("%s: no services defined", path)
	}
	return f, nil
}

// Images returns the distinct image references, sorted.
func (f File) Images() []string {
	seen := map[string]bool{}
	var images []string
	for _, svc := range f.Services {
		if svc.Image != "" && !seen[svc.Image] {
			images = append(images, svc.Image)
			seen[svc.Image] = true
		}
	}
	sort.Strings(images)
	return images
}
