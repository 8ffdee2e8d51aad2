package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the config file when no path is given to Load.
const EnvConfigFile = "CARTKEEPER_CONFIG"

// Load builds the configuration. path names a YAML file; when empty, the
// file named by CARTKEEPER_CONFIG is used, then <config dir>/cartkeeper/config.yaml
// if it exists. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := applyTags(reflect.ValueOf(cfg).Elem(), defaultValue); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigFile)
		explicit = path != ""
	}
	if !explicit {
		if dir, err := Dir(); err == nil {
			path = filepath.Join(dir, "config.yaml")
		}
	}
	if path != "" {
		if err := loadFile(cfg, path, explicit); err != nil {
			return nil, err
		}
	}

	if err := applyTags(reflect.ValueOf(cfg).Elem(), envValue); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	cfg := &Config{}
	// Defaults are compile-time tags; a failure here is a programming error.
	if err := applyTags(reflect.ValueOf(cfg).Elem(), defaultValue); err != nil {
		panic(err)
	}
	return cfg
}

// Dir returns the per-user cartkeeper directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, "cartkeeper"), nil
}

// loadFile decodes path over cfg. Unknown keys are rejected so typos
// surface. A missing file is an error only when required.
func loadFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// fillPaths derives file locations left empty by every layer.
func (c *Config) fillPaths() error {
	needDB := c.Database.Backend == "sqlite" && c.Database.Path == ""
	needSecrets := c.Secrets.Backend == "file" && c.Secrets.Path == ""
	if !needDB && !needSecrets {
		return nil
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	if needDB {
		c.Database.Path = filepath.Join(dir, "cartkeeper.db")
	}
	if needSecrets {
		c.Secrets.Path = filepath.Join(dir, "secrets.yaml")
	}
	return nil
}

// A tagSource returns the raw value for a field, and its label for errors.
type tagSource func(field reflect.StructField) (value, label string)

func defaultValue(f reflect.StructField) (string, string) {
	return f.Tag.Get("default"), f.Name + " default"
}

func envValue(f reflect.StructField) (string, string) {
	name := f.Tag.Get("env")
	if name == "" {
		return "", ""
	}
	return os.Getenv(name), name
}

// applyTags recursively sets fields from src. Empty values leave the field
// unchanged.
func applyTags(v reflect.Value, src tagSource) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			if err := applyTags(fieldVal, src); err != nil {
				return err
			}
			continue
		}

		value, label := src(field)
		if value == "" {
			continue
		}
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", label, value, err)
		}
	}
	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
