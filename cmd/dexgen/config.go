package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/chazu/dexgen/pkg/dex"
)

// Config represents a dexgen.toml build manifest: the classes and
// trivially-bodied methods to emit into one dex image.
type Config struct {
	Output  string        `toml:"output"`
	Classes []ClassConfig `toml:"class"`
}

// ClassConfig describes one class to generate.
type ClassConfig struct {
	Name       string         `toml:"name"`
	SourceFile string         `toml:"source-file"`
	Methods    []MethodConfig `toml:"method"`
}

// MethodConfig describes one method. Body selects the generated body
// kind: return-void, return-int (Value), return-string (Text), or
// return-new (a fresh instance of the return type).
type MethodConfig struct {
	Name    string   `toml:"name"`
	Returns string   `toml:"returns"`
	Params  []string `toml:"params"`
	Body    string   `toml:"body"`
	Value   int      `toml:"value"`
	Text    string   `toml:"text"`
}

// LoadConfig parses and validates a manifest file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if cfg.Output == "" {
		cfg.Output = "classes.dex"
	}
	if len(cfg.Classes) == 0 {
		return nil, fmt.Errorf("%s: no [[class]] sections", path)
	}
	for _, c := range cfg.Classes {
		if c.Name == "" {
			return nil, fmt.Errorf("%s: class without a name", path)
		}
		for _, m := range c.Methods {
			if m.Name == "" {
				return nil, fmt.Errorf("%s: class %s has a method without a name", path, c.Name)
			}
			switch m.Body {
			case "return-void", "return-int", "return-string", "return-new":
			default:
				return nil, fmt.Errorf("%s: method %s.%s: unknown body kind %q",
					path, c.Name, m.Name, m.Body)
			}
		}
	}
	return &cfg, nil
}

// typeFromName maps a manifest type name to a descriptor. Primitive names
// and the "string" shorthand are recognized; anything else is taken as a
// fully-qualified class name.
func typeFromName(name string) (dex.TypeDescriptor, error) {
	switch name {
	case "", "void":
		return dex.VoidType(), nil
	case "boolean":
		return dex.BooleanType(), nil
	case "byte":
		return dex.ByteType(), nil
	case "char":
		return dex.CharType(), nil
	case "short":
		return dex.ShortType(), nil
	case "int":
		return dex.IntType(), nil
	case "long":
		return dex.LongType(), nil
	case "float":
		return dex.FloatType(), nil
	case "double":
		return dex.DoubleType(), nil
	case "string":
		return dex.ObjectType("java.lang.String"), nil
	default:
		return dex.ObjectType(name), nil
	}
}
