package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type sitesFile struct {
	Sites []domain.Site `yaml:"sites"`
}

// LoadSites reads a YAML site catalog of the form
//
//	sites:
//	  - id: 1
//	    name: Satyawati College
//	    lat: 28.69572
//	    lon: 77.181295
//
// and validates it the same way the built-in catalog is validated.
func LoadSites(path string) ([]domain.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites file %s: %w", path, err)
	}
	if _, err := domain.NewCatalog(f.Sites); err != nil {
		return nil, fmt.Errorf("sites file %s: %w", path, err)
	}
	return f.Sites, nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
