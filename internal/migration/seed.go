package migration

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// SeedCategory is a default category created on a book without categories.
type SeedCategory struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Value string `toml:"value"`
}

// DefaultSeed is the stock category list.
var DefaultSeed = []SeedCategory{
	{Name: "Utilities", Type: "fixed", Value: "300"},
	{Name: "Food", Type: "fixed", Value: "500"},
	{Name: "Rent", Type: "fixed", Value: "1000"},
	{Name: "Entertainment", Type: "fixed", Value: "200"},
	{Name: "Others", Type: "fixed", Value: "200"},
}

type seedFile struct {
	Categories []SeedCategory `toml:"categories"`
}

// LoadSeedFile reads a TOML file of the form
//
//	[[categories]]
//	name = "Food"
//	type = "fixed"
//	value = "500"
func LoadSeedFile(path string) ([]SeedCategory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if f.Categories == nil {
		f.Categories = []SeedCategory{}
	}
	return f.Categories, nil
}
