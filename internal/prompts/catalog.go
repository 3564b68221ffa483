// Package prompts holds the built-in prompt templates, length buckets and
// seed model settings, embedded from YAML.
package prompts

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

// VariantNewContentStyled is the built-in new_content text used when a style guide is available.
const VariantNewContentStyled = "new_content_styled"

// System prompt keys of the auxiliary model calls.
const (
	SystemStyleAnalysis     = "style_analysis"
	SystemStyleCondensation = "style_condensation"
	SystemTitle             = "title"
)

// Length is a built-in length bucket.
type Length struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Phrase       string `yaml:"length_phrase"`
	TargetTokens int    `yaml:"target_tokens"`
	Constraint   string `yaml:"constraint"` // replaces the length requirement line when set
}

// Model is a model settings row created by the seed command.
type Model struct {
	ModelName           string  `yaml:"model_name"`
	MaxTokens           int     `yaml:"max_tokens"`
	Temperature         float64 `yaml:"temperature"`
	AnalysisTemperature float64 `yaml:"analysis_temperature"`
	Default             bool    `yaml:"default"`
}

type templateFile struct {
	Templates     map[string]string `yaml:"templates"`
	SystemPrompts map[string]string `yaml:"system_prompts"`
}

type settingsFile struct {
	Lengths       []Length `yaml:"lengths"`
	DefaultLength string   `yaml:"default_length"`
	Models        []Model  `yaml:"models"`
}

// Catalog is the parsed set of built-in defaults. It is read-only after load.
type Catalog struct {
	templates     map[string]string
	systemPrompts map[string]string
	lengths       []Length
	defaultLength string
	models        []Model
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Load parses the embedded defaults once and returns the shared catalog.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parse()
	})
	return loaded, loadErr
}

// MustLoad is Load for process start-up, where a broken embed is fatal.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func parse() (*Catalog, error) {
	var tf templateFile
	if err := readYAML("defaults/templates.yaml", &tf); err != nil {
		return nil, err
	}
	var sf settingsFile
	if err := readYAML("defaults/settings.yaml", &sf); err != nil {
		return nil, err
	}

	c := &Catalog{
		templates:     tf.Templates,
		systemPrompts: tf.SystemPrompts,
		lengths:       sf.Lengths,
		defaultLength: sf.DefaultLength,
		models:        sf.Models,
	}
	if _, ok := c.Length(c.defaultLength); !ok {
		return nil, fmt.Errorf("default length %q is not defined", c.defaultLength)
	}
	return c, nil
}

func readYAML(name string, out interface{}) error {
	data, err := defaultFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

// Template returns the built-in text for a template type or variant key.
func (c *Catalog) Template(key string) (string, bool) {
	t, ok := c.templates[key]
	return t, ok
}

// SystemPrompt returns the fixed system message of an auxiliary call.
func (c *Catalog) SystemPrompt(key string) string {
	return c.systemPrompts[key]
}

// Length returns the built-in bucket called name.
func (c *Catalog) Length(name string) (Length, bool) {
	for _, l := range c.lengths {
		if l.Name == name {
			return l, true
		}
	}
	return Length{}, false
}

// LengthOrDefault returns the bucket called name, or the default bucket.
func (c *Catalog) LengthOrDefault(name string) Length {
	if l, ok := c.Length(name); ok {
		return l
	}
	l, _ := c.Length(c.defaultLength)
	return l
}

// Lengths returns the built-in buckets in declaration order.
func (c *Catalog) Lengths() []Length {
	return append([]Length(nil), c.lengths...)
}

// Models returns the seed model settings.
func (c *Catalog) Models() []Model {
	return append([]Model(nil), c.models...)
}
