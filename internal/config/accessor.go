package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GetByPath retrieves a config value by dot-separated path, e.g. "bot.name"
// or "providers.ollama.defaultModel".
func GetByPath(cfg *Config, path string) (interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal config: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	parts := strings.Split(path, ".")
	var current interface{} = m
	for i, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("path %s: %s is not an object", path, strings.Join(parts[:i], "."))
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("path %s: key %s not found", path, part)
		}
	}
	return current, nil
}

// SetByPath sets a config value by dot-separated path. The value string is
// converted to bool, int, or float when it parses as one.
func SetByPath(cfg *Config, path string, value string) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("cannot unmarshal config: %w", err)
	}

	parts := strings.Split(path, ".")
	current := m
	for i, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			return fmt.Errorf("path %s: key %s not found", path, part)
		}
		obj, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("path %s: %s is not an object", path, strings.Join(parts[:i+1], "."))
		}
		current = obj
	}

	lastKey := parts[len(parts)-1]
	if _, ok := current[lastKey]; !ok {
		return fmt.Errorf("path %s: key %s not found", path, lastKey)
	}
	current[lastKey] = parseValue(value)

	updated, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("cannot re-marshal config: %w", err)
	}
	if err := json.Unmarshal(updated, cfg); err != nil {
		return fmt.Errorf("cannot apply config change: %w", err)
	}
	return nil
}

// parseValue converts a string to its most specific JSON-compatible type.
func parseValue(s string) interface{} {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Sanitize returns a deep copy of the config with secrets masked, safe for
// printing with the config show subcommand.
func Sanitize(cfg *Config) *Config {
	data, err := json.Marshal(cfg)
	if err != nil {
		return cfg
	}
	var out Config
	if err := json.Unmarshal(data, &out); err != nil {
		return cfg
	}

	for name, pc := range out.Providers {
		pc.APIKey = maskString(pc.APIKey)
		out.Providers[name] = pc
	}
	out.Valorant.APIKey = maskString(out.Valorant.APIKey)
	return &out
}

func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// ListPaths returns all settable config paths, sorted.
func ListPaths(cfg *Config) []string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}

	var paths []string
	flattenMap("", m, &paths)
	sort.Strings(paths)
	return paths
}

func flattenMap(prefix string, m map[string]interface{}, out *[]string) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := v.(map[string]interface{}); ok {
			flattenMap(path, child, out)
		} else {
			*out = append(*out, path)
		}
	}
}
