package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from defaults, an optional YAML file, and
// environment variables, later sources overriding earlier ones.
type Loader struct {
	yamlFile  string
	envPrefix string
}

// NewLoader creates a loader with the STALL_ environment prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "STALL_"}
}

// WithYAMLFile sets the YAML configuration file path.
func (l *Loader) WithYAMLFile(path string) *Loader {
	l.yamlFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load populates cfg and validates the result.
func (l *Loader) Load(cfg *Config) error {
	*cfg = *DefaultConfig()

	if l.yamlFile != "" {
		if err := l.loadFromYAML(cfg); err != nil {
			return fmt.Errorf("load yaml config: %w", err)
		}
	}
	if err := l.loadStructFromEnv(reflect.ValueOf(cfg).Elem(), strings.TrimSuffix(l.envPrefix, "_")); err != nil {
		return fmt.Errorf("load env config: %w", err)
	}
	return cfg.Validate()
}

// loadFromYAML merges the YAML file into cfg. A missing file is not an
// error; the file is optional.
func (l *Loader) loadFromYAML(cfg *Config) error {
	data, err := os.ReadFile(l.yamlFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadStructFromEnv recursively overrides struct fields from
// environment variables named PREFIX_SECTION_FIELD per the env tags.
func (l *Loader) loadStructFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" {
			continue
		}
		envName := strings.Split(envTag, ",")[0]
		full := prefix + "_" + envName

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.loadStructFromEnv(field, full); err != nil {
				return err
			}
			continue
		}

		raw, ok := os.LookupEnv(full)
		if !ok {
			continue
		}
		if err := setFieldFromString(field, raw); err != nil {
			return fmt.Errorf("%s: %w", full, err)
		}
	}
	return nil
}

// applyDefaults fills zero fields from their default tags, recursing
// into nested sections.
func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyDefaults(field)
			continue
		}
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok || def == "" {
			continue
		}
		// Defaults never override values already set.
		if !field.IsZero() {
			continue
		}
		_ = setFieldFromString(field, def)
	}
}

func setFieldFromString(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(v)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
