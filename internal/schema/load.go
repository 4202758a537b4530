package schema

import (
	"fmt"
	"os"
	"sort"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// Load reads a catalog from path and validates it. A directory is loaded
// as a CUE package; anything else is read as a YAML file.
func Load(path string) (*ir.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}
	}

	var catalog *ir.Catalog
	if info.IsDir() {
		catalog, err = LoadCUE(path)
	} else {
		catalog, err = LoadYAML(path)
	}
	if err != nil {
		return nil, err
	}

	if errs := Validate(catalog); len(errs) > 0 {
		return nil, errs
	}
	return catalog, nil
}

func sortedColumnKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
