// Package prompts loads the LLM prompt templates embedded from JSON files. Each file
// maps a prompt key to its template; placeholders use the {{.Key}} form.
//
// An override directory may hold files with the same names: their keys replace the
// embedded ones, so a deployment can tune the classification wording without a
// rebuild.
package prompts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var placeholderRe = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// parsed prompt files by name
var (
	cache       = make(map[string]map[string]string)
	overrideDir string
	cacheMu     sync.RWMutex
)

// SetOverrideDir sets the directory searched before the embedded files and drops
// the cache. An empty dir restores the embedded prompts.
func SetOverrideDir(dir string) {
	cacheMu.Lock()
	overrideDir = dir
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

// Get retrieves a prompt by filename and key, e.g. Get("classification.json",
// "classify-procurement").
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// MustGet is Get for prompts that ship with the binary; it panics on a missing key.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Placeholders returns the distinct placeholder names of a template in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Format replaces {{.Key}} placeholders with values from data in a single pass, so
// values containing placeholder text are not expanded again. Unknown placeholders
// are left in place.
func Format(template string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := data[m[3:len(m)-2]]; ok {
			return v
		}
		return m
	})
}

// Render loads a prompt and fills its placeholders. Every placeholder in the
// template must have a value in data.
func Render(filename, key string, data map[string]string) (string, error) {
	template, err := Get(filename, key)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s/%s: no value for %s", filename, key, strings.Join(missing, ", "))
	}
	return Format(template, data), nil
}

// loadFile parses the embedded file, merges the override file when one exists and
// caches the result.
func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	prompts, exists := cache[filename]
	dir := overrideDir
	cacheMu.RUnlock()
	if exists {
		return prompts, nil
	}

	prompts = make(map[string]string)
	data, embedErr := promptFiles.ReadFile(filename)
	if embedErr == nil {
		if err := json.Unmarshal(data, &prompts); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
		}
	}

	overridden := false
	if dir != "" {
		path := filepath.Join(dir, filename)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var extra map[string]string
			if err := json.Unmarshal(data, &extra); err != nil {
				return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
			}
			for k, v := range extra {
				prompts[k] = v
			}
			overridden = true
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
		}
	}

	if embedErr != nil && !overridden {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, embedErr)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}

// ClearCache drops parsed prompt files.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

// List returns all available prompt keys in a file, sorted.
func List(filename string) ([]string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
