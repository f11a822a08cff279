package classifier

import (
	"fmt"
	"os"

	"github.com/dvloznov/taxease/internal/domain"
	yaml "gopkg.in/yaml.v2"
)

// LoadRules reads a YAML rules file of the form
//
//	income:
//	  - salary
//	deductible:
//	  - pharmacy
//	expense:
//	  - rent
//
// Categories present in the file replace the built-in keywords for that
// category; missing categories keep the defaults. The order of keys in the
// file has no effect on evaluation order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRules: reading %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules is LoadRules on an in-memory document.
func ParseRules(data []byte) ([]Rule, error) {
	raw := make(map[string][]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ParseRules: unmarshaling yaml: %w", err)
	}

	for name := range raw {
		if !domain.Category(name).Valid() {
			return nil, fmt.Errorf("ParseRules: unknown category %q", name)
		}
	}

	rules := DefaultRules()
	for i, r := range rules {
		if kws, ok := raw[string(r.Category)]; ok {
			rules[i].Keywords = kws
		}
	}
	return rules, nil
}
