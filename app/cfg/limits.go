package cfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sloonz/cfeedparser/app/markup"
)

// LoadLimits reads parser limits from a YAML file. Keys missing from the
// file keep their defaults; an empty path yields the defaults.
func LoadLimits(path string) (markup.Limits, error) {
	limits := markup.DefaultLimits()
	if path == "" {
		return limits, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("failed to read limits file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&limits); err != nil && !errors.Is(err, io.EOF) {
		return limits, fmt.Errorf("failed to parse limits file %s: %w", path, err)
	}

	return limits.WithDefaults(), nil
}
