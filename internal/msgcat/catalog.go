// Package msgcat holds the user-facing text: diagram captions and the
// terminal viewer's strings. Defaults are embedded; a directory of YAML files
// can override individual keys.
package msgcat

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embeddedMessages []byte

var ErrUnknownKey = errors.New("unknown message key")

// Catalog maps dotted keys ("label.clickable") to compiled templates.
// Templates run with missingkey=error.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// New loads the embedded messages, then any *.yaml / *.yml files in
// overrideDir.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*template.Template)}
	msgs, err := flatten(embeddedMessages)
	if err != nil {
		return nil, fmt.Errorf("embedded messages: %w", err)
	}
	if err := c.add("messages.en.yaml", msgs); err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		if err := c.overrideFrom(dir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns the embedded catalog. The embedded file is part of the
// binary, so failure here is a build defect.
func Default() *Catalog {
	c, err := New("")
	if err != nil {
		panic(err)
	}
	return c
}

// overrideFrom applies the directory's files in name order. Each key may be
// overridden by one file only.
func (c *Catalog) overrideFrom(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read messages dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	slices.Sort(names)

	owner := make(map[string]string)
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		msgs, err := flatten(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for key := range msgs {
			if first, dup := owner[key]; dup {
				return fmt.Errorf("duplicate override key %q in %s and %s", key, first, name)
			}
			owner[key] = name
		}
		if err := c.add(name, msgs); err != nil {
			return err
		}
	}
	return nil
}

// add compiles msgs and installs them only if all of them parse.
func (c *Catalog) add(source string, msgs map[string]string) error {
	compiled := make(map[string]*template.Template, len(msgs))
	for key, text := range msgs {
		t, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", source, key, err)
		}
		compiled[key] = t
	}
	c.mu.Lock()
	maps.Copy(c.templates, compiled)
	c.mu.Unlock()
	return nil
}

// flatten turns nested mappings into dotted keys. Leaves must be strings;
// blank strings and nulls leave the key unset.
func flatten(raw []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if len(doc.Content) == 0 {
		return out, nil
	}
	return out, walk(doc.Content[0], "", out)
}

func walk(n *yaml.Node, prefix string, out map[string]string) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := walk(n.Content[i+1], key, out); err != nil {
				return err
			}
		}
		return nil
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("line %d: message without a key", n.Line)
		}
		switch n.ShortTag() {
		case "!!null":
			return nil
		case "!!str":
			if strings.TrimSpace(n.Value) != "" {
				out[prefix] = n.Value
			}
			return nil
		}
		return fmt.Errorf("%s: line %d: want a string, got %s", prefix, n.Line, n.ShortTag())
	default:
		return fmt.Errorf("%s: line %d: want a mapping or a string", prefix, n.Line)
	}
}

// Render executes the template for key.
func (c *Catalog) Render(key string, data any) (string, error) {
	c.mu.RLock()
	t, ok := c.templates[strings.TrimSpace(key)]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderOr is Render with a fallback for a nil catalog or a failed render.
func (c *Catalog) RenderOr(key string, data any, fallback string) string {
	if c == nil {
		return fallback
	}
	s, err := c.Render(key, data)
	if err != nil {
		return fallback
	}
	return s
}
