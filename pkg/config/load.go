package config

import (
	"os"
	"reflect"
	"strconv"

	"github.com/BurntSushi/toml"
)

const envPrefix = "BOOKS"

// Load builds the configuration in three layers: struct tag defaults, then
// the toml file (when a path is given), then environment overrides. Env names
// compose the cfg tags, e.g. BOOKS_XERO_CLIENT_ID or BOOKS_SYNC_BATCH_SIZE.
func Load(path string) (*BooksConfig, error) {
	cfg := &BooksConfig{}
	applyDefaults(reflect.ValueOf(cfg).Elem())

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(reflect.ValueOf(cfg).Elem(), envPrefix)
	return cfg, nil
}

func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			applyDefaults(field)
			continue
		}
		def := t.Field(i).Tag.Get("default")
		if def == "" || !field.IsZero() {
			continue
		}
		setField(field, def)
	}
}

func applyEnv(v reflect.Value, prefix string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("cfg")
		if tag == "" {
			continue
		}
		name := prefix + "_" + tag
		if field.Kind() == reflect.Struct {
			applyEnv(field, name)
			continue
		}
		if value, ok := os.LookupEnv(name); ok {
			setField(field, value)
		}
	}
}

func setField(field reflect.Value, value string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	}
}
