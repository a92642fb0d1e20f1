// Package locale renders spoken responses from per-locale YAML catalogs.
package locale

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/seu-repo/armvoice/internal/domain"
)

//go:embed locales/*.yaml
var embedded embed.FS

var (
	ErrUnknownKey = errors.New("locale: unknown message key")
	ErrNoLocales  = errors.New("locale: no catalogs loaded")
)

// Catalog implements ports.Renderer. Locale lookup tries the exact tag,
// then the language ("pt-PT" finds "pt-BR"), then the default locale.
type Catalog struct {
	defaultLocale string
	templates     map[string]map[domain.MessageKey]*template.Template
	log           *zap.Logger
}

// NewCatalog loads the embedded catalogs and, when dir is not empty, every
// *.yaml file in dir on top of them. Keys from dir replace embedded keys of
// the same locale.
func NewCatalog(defaultLocale, dir string, log *zap.Logger) (*Catalog, error) {
	c := &Catalog{
		defaultLocale: defaultLocale,
		templates:     make(map[string]map[domain.MessageKey]*template.Template),
		log:           log,
	}

	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	if err := c.loadFS(sub); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := c.loadFS(os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("locale: load %s: %w", dir, err)
		}
	}

	if len(c.templates) == 0 {
		return nil, ErrNoLocales
	}
	if _, ok := c.templates[c.defaultLocale]; !ok {
		return nil, fmt.Errorf("locale: default locale %q has no catalog", c.defaultLocale)
	}
	return c, nil
}

func (c *Catalog) loadFS(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return err
	}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		locale := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		if err := c.add(locale, data); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalog) add(locale string, data []byte) error {
	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return err
	}

	set, ok := c.templates[locale]
	if !ok {
		set = make(map[domain.MessageKey]*template.Template, len(messages))
	}
	for k, text := range messages {
		tmpl, err := template.New(k).Option("missingkey=zero").Parse(text)
		if err != nil {
			return fmt.Errorf("key %s: %w", k, err)
		}
		set[domain.MessageKey(k)] = tmpl
	}
	for _, k := range domain.MessageKeys {
		if _, ok := set[k]; !ok {
			c.log.Warn("Locale catalog is missing a key", zap.String("locale", locale), zap.String("key", string(k)))
		}
	}
	c.templates[locale] = set
	return nil
}

// Locales returns the loaded locale tags, sorted.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.templates))
	for l := range c.templates {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) resolve(locale string) map[domain.MessageKey]*template.Template {
	if set, ok := c.templates[locale]; ok {
		return set
	}
	lang := strings.ToLower(strings.SplitN(locale, "-", 2)[0])
	if lang != "" {
		for _, tag := range c.Locales() {
			if strings.ToLower(strings.SplitN(tag, "-", 2)[0]) == lang {
				return c.templates[tag]
			}
		}
	}
	return c.templates[c.defaultLocale]
}

func (c *Catalog) Render(locale string, key domain.MessageKey, params map[string]interface{}) (string, error) {
	tmpl, ok := c.resolve(locale)[key]
	if !ok {
		tmpl, ok = c.templates[c.defaultLocale][key]
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	var buf bytes.Buffer
	if params == nil {
		params = map[string]interface{}{}
	}
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("locale: render %s: %w", key, err)
	}
	return buf.String(), nil
}
