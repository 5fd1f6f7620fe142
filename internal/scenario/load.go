package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a scenario file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCUE  Format = "cue"
)

// ErrUnknownFormat is returned for file extensions no decoder handles.
var ErrUnknownFormat = errors.New("unknown scenario format")

// ErrInvalid is returned for a scenario that decodes but fails the schema.
var ErrInvalid = errors.New("invalid scenario")

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// LoadFile reads, decodes and validates a scenario file.
// Unknown fields are rejected in every format.
func LoadFile(path string) (*Descriptor, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	d, err := Parse(data, format, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a scenario in the given format and validates it against the
// schema. name is only used in CUE error positions.
func Parse(data []byte, format Format, name string) (*Descriptor, error) {
	var (
		d   *Descriptor
		err error
	)

	switch format {
	case FormatYAML:
		d, err = decodeYAML(data)
	case FormatTOML:
		d, err = decodeTOML(data)
	case FormatCUE:
		// CUE files are unified with the schema while decoding.
		return decodeCUE(data, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(*d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return d, nil
}

func decodeYAML(data []byte) (*Descriptor, error) {
	var d Descriptor
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "after-test:"
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &d, nil
}

func decodeTOML(data []byte) (*Descriptor, error) {
	var d Descriptor
	md, err := toml.Decode(string(data), &d)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("failed to parse TOML: unknown field %q", undecoded[0].String())
	}
	return &d, nil
}
