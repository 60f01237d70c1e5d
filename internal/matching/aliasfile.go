package matching

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// aliasFile is the on-disk alias seed format: a flat shorthand-to-canonical
// mapping under a top-level "aliases" key.
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliasFile reads sponsor/company aliases from a yaml file. Keys are
// lowercased so lookups match the normalized text they run against.
func LoadAliasFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "matching: read alias file %s", path)
	}

	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "matching: parse alias file %s", path)
	}

	aliases := make(map[string]string, len(f.Aliases))
	for k, v := range f.Aliases {
		aliases[strings.ToLower(k)] = v
	}
	return aliases, nil
}
