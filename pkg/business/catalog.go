package business

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/ingeniar/bizgen/pkg/llm"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type FieldKind string

const (
	KindText     FieldKind = "text"
	KindNumber   FieldKind = "number"
	KindChoice   FieldKind = "choice"
	KindDocument FieldKind = "document"
)

// Field is one input of a mode's form.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Kind        FieldKind `yaml:"kind" json:"kind"`
	Required    bool      `yaml:"required" json:"required"`
	NonNegative bool      `yaml:"non_negative" json:"nonNegative,omitempty"`
	Options     []string  `yaml:"options" json:"options,omitempty"`
	Multiline   bool      `yaml:"multiline" json:"multiline,omitempty"`
}

// Profitability names the number fields summed into income and costs.
// When set, the difference is computed before the prompt is built.
type Profitability struct {
	Income         []string `yaml:"income"`
	Costs          []string `yaml:"costs"`
	Currency       string   `yaml:"currency"`
	PositiveIncome bool     `yaml:"positive_income"`
}

// Locale holds the language-specific texts of a mode.
type Locale struct {
	Title             string            `yaml:"title"`
	Description       string            `yaml:"description"`
	SystemInstruction string            `yaml:"system_instruction"`
	ErrorPrefix       string            `yaml:"error_prefix"`
	Template          string            `yaml:"template"`
	Labels            map[string]string `yaml:"labels"`

	tmpl *template.Template
}

// Mode is one entry of the dispatch table: required fields, prompt template and
// generation parameters.
type Mode struct {
	ID            string               `yaml:"id"`
	Path          string               `yaml:"path"`
	Generation    llm.GenerationConfig `yaml:"generation"`
	Fields        []Field              `yaml:"fields"`
	Profitability *Profitability       `yaml:"profitability"`
	Locales       map[string]*Locale   `yaml:"locales"`

	defaultLocale string
}

// Catalog is the immutable set of modes, loaded once at startup.
type Catalog struct {
	DefaultLocale string  `yaml:"default_locale"`
	Modes         []*Mode `yaml:"modes"`

	byID map[string]*Mode
}

// DefaultCatalog parses the catalog bundled with the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(embeddedCatalog)
}

// LoadCatalog parses and validates a YAML catalog, compiling every template.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(c.Modes) == 0 {
		return nil, errors.New("catalog: no modes defined")
	}
	c.DefaultLocale = strings.ToLower(strings.TrimSpace(c.DefaultLocale))
	c.byID = make(map[string]*Mode, len(c.Modes))
	for _, m := range c.Modes {
		if err := m.compile(c.DefaultLocale); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate mode %q", m.ID)
		}
		c.byID[m.ID] = m
	}
	return &c, nil
}

// SetDefaultLocale changes the fallback language. Every mode must define it.
func (c *Catalog) SetDefaultLocale(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, m := range c.Modes {
		if _, ok := m.Locales[lang]; !ok {
			return fmt.Errorf("catalog: mode %q has no locale %q", m.ID, lang)
		}
	}
	c.DefaultLocale = lang
	for _, m := range c.Modes {
		m.defaultLocale = lang
	}
	return nil
}

func (c *Catalog) Mode(id string) (*Mode, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Languages returns the locales defined by every mode, default first.
func (c *Catalog) Languages() []string {
	out := []string{c.DefaultLocale}
	for lang := range c.Modes[0].Locales {
		if lang == c.DefaultLocale {
			continue
		}
		shared := true
		for _, m := range c.Modes[1:] {
			if _, ok := m.Locales[lang]; !ok {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, lang)
		}
	}
	sort.Strings(out[1:])
	return out
}

// Locale resolves lang to a defined locale, falling back to the catalog default.
func (m *Mode) Locale(lang string) (string, *Locale) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if l, ok := m.Locales[lang]; ok {
		return lang, l
	}
	return m.defaultLocale, m.Locales[m.defaultLocale]
}

// Field returns the field definition by name.
func (m *Mode) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (m *Mode) documentField() string {
	for _, f := range m.Fields {
		if f.Kind == KindDocument {
			return f.Name
		}
	}
	return ""
}

func (m *Mode) compile(defaultLocale string) error {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return errors.New("catalog: mode with empty id")
	}
	if !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("catalog: mode %q: path must start with /", m.ID)
	}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if f.Name == "" || seen[f.Name] {
			return fmt.Errorf("catalog: mode %q: empty or duplicate field %q", m.ID, f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case KindText, KindNumber, KindDocument:
		case KindChoice:
			if len(f.Options) == 0 {
				return fmt.Errorf("catalog: mode %q: choice field %q has no options", m.ID, f.Name)
			}
		default:
			return fmt.Errorf("catalog: mode %q: field %q has unknown kind %q", m.ID, f.Name, f.Kind)
		}
	}
	if p := m.Profitability; p != nil {
		for _, name := range append(append([]string{}, p.Income...), p.Costs...) {
			if f, ok := m.Field(name); !ok || f.Kind != KindNumber {
				return fmt.Errorf("catalog: mode %q: profitability refers to %q which is not a number field", m.ID, name)
			}
		}
	}
	if _, ok := m.Locales[defaultLocale]; !ok {
		return fmt.Errorf("catalog: mode %q has no default locale %q", m.ID, defaultLocale)
	}
	m.defaultLocale = defaultLocale
	for lang, l := range m.Locales {
		if l == nil || strings.TrimSpace(l.Template) == "" {
			return fmt.Errorf("catalog: mode %q locale %q: empty template", m.ID, lang)
		}
		tmpl, err := template.New(m.ID + "." + lang).Option("missingkey=error").Parse(l.Template)
		if err != nil {
			return fmt.Errorf("catalog: mode %q locale %q: %w", m.ID, lang, err)
		}
		l.tmpl = tmpl
	}
	return nil
}
