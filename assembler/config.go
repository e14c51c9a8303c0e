package assembler

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AssemblerConfig is read from a JSON file, e.g.
//
//	{"byteOrder": "little", "extensions": ["m"]}
type AssemblerConfig struct {
	// ByteOrder of every emitted word: "big" (default, most significant
	// byte first) or "little".
	ByteOrder  string   `json:"byteOrder"`
	Extensions []string `json:"extensions"`
}

func DefaultConfig() AssemblerConfig {
	return AssemblerConfig{
		ByteOrder:  "big",
		Extensions: []string{"m"},
	}
}

var assemblerConfig = DefaultConfig()

func GetConfig() AssemblerConfig {
	return assemblerConfig
}

func SetConfig(config AssemblerConfig) {
	assemblerConfig = config
}

// LoadConfig reads a config file. Fields missing from the file keep their
// default values.
func LoadConfig(path string) (AssemblerConfig, error) {
	conf := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	if err := json.Unmarshal(b, &conf); err != nil {
		return conf, fmt.Errorf("error unmarshalling %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

func (c AssemblerConfig) Validate() error {
	switch strings.ToLower(c.ByteOrder) {
	case "", "big", "little":
	default:
		return fmt.Errorf("invalid byte order %q, expected \"big\" or \"little\"", c.ByteOrder)
	}
	for _, ext := range c.Extensions {
		if !strings.EqualFold(ext, "m") {
			return fmt.Errorf("unsupported extension %q", ext)
		}
	}
	return nil
}

func (c AssemblerConfig) Order() binary.ByteOrder {
	if strings.EqualFold(c.ByteOrder, "little") {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// HasExtension reports whether mnemonics of ext are accepted. The base
// integer set ("") is always enabled.
func (c AssemblerConfig) HasExtension(ext string) bool {
	if ext == "" {
		return true
	}
	for _, e := range c.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
