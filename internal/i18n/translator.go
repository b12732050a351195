// Package i18n resolves message codes to text in the caller's language.
//
// Catalogs are flat YAML maps of code to message, one file per language
// (en.yaml, es.yaml, ...). The embedded catalogs are always loaded; a
// directory on disk can override or extend them and is reloaded on change.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const DefaultLanguage = "en"

//go:embed locales/*.yaml
var embedded embed.FS

type catalogs map[string]map[string]string

type Translator struct {
	logger *slog.Logger

	mu      sync.RWMutex
	base    catalogs
	current catalogs
	names   []string
	matcher language.Matcher
}

// New loads the embedded catalogs.
func New(logger *slog.Logger) (*Translator, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, fmt.Errorf("open embedded locales: %w", err)
	}
	base, err := loadFS(sub)
	if err != nil {
		return nil, err
	}
	if _, ok := base[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("embedded locales lack %q catalog", DefaultLanguage)
	}

	t := &Translator{logger: logger.With("component", "i18n"), base: base}
	t.swap(base)
	return t, nil
}

// LoadDir overlays the catalogs found in dir on top of the embedded ones.
func (t *Translator) LoadDir(dir string) error {
	overlay, err := loadFS(os.DirFS(dir))
	if err != nil {
		return err
	}

	merged := make(catalogs, len(t.base)+len(overlay))
	for lang, msgs := range t.base {
		merged[lang] = maps.Clone(msgs)
	}
	for lang, msgs := range overlay {
		if merged[lang] == nil {
			merged[lang] = make(map[string]string, len(msgs))
		}
		maps.Copy(merged[lang], msgs)
	}

	t.swap(merged)
	t.logger.Info("catalogs loaded", "dir", dir, "languages", t.Languages())
	return nil
}

// Watch reloads dir whenever a catalog in it changes. It blocks until ctx
// is cancelled.
func (t *Translator) Watch(ctx context.Context, dir string) error {
	if err := t.LoadDir(dir); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isCatalog(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			if err := t.LoadDir(dir); err != nil {
				t.logger.Error("reload catalogs", "file", ev.Name, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			t.logger.Error("catalog watcher", "error", err)
		}
	}
}

// Resolve picks the best supported language from an explicit choice (a
// ?lang= parameter) and an Accept-Language header, in that order.
func (t *Translator) Resolve(explicit, acceptLanguage string) string {
	var desired []language.Tag
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			desired = append(desired, tag)
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			desired = append(desired, tags...)
		}
	}
	if len(desired) == 0 {
		return DefaultLanguage
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	_, idx, conf := t.matcher.Match(desired...)
	if conf == language.No {
		return DefaultLanguage
	}
	return t.names[idx]
}

// Translate returns the message for key in lang, falling back to English
// and then to the key itself. {name} placeholders are filled from params.
func (t *Translator) Translate(lang, key string, params map[string]string) string {
	t.mu.RLock()
	msg, ok := t.current[lang][key]
	if !ok {
		msg, ok = t.current[DefaultLanguage][key]
	}
	t.mu.RUnlock()
	if !ok {
		msg = key
	}

	if len(params) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Has reports whether key exists in the fallback catalog.
func (t *Translator) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.current[DefaultLanguage][key]
	return ok
}

func (t *Translator) Languages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.names)
}

func (t *Translator) swap(c catalogs) {
	// The default language goes first: the matcher falls back to index 0.
	names := []string{DefaultLanguage}
	for lang := range c {
		if lang != DefaultLanguage {
			names = append(names, lang)
		}
	}
	slices.Sort(names[1:])

	tags := make([]language.Tag, len(names))
	for i, n := range names {
		tags[i] = language.Make(n)
	}

	t.mu.Lock()
	t.current = c
	t.names = names
	t.matcher = language.NewMatcher(tags)
	t.mu.Unlock()
}

func loadFS(fsys fs.FS) (catalogs, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	out := make(catalogs)
	for _, e := range entries {
		if e.IsDir() || !isCatalog(e.Name()) {
			continue
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var msgs map[string]string
		if err := yaml.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		lang := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		out[lang] = msgs
	}
	return out, nil
}

func isCatalog(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
