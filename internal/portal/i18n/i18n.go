// Package i18n loads the message catalogs and resolves the viewer's language.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// DefaultFallback is the language used when nothing better matches.
const DefaultFallback = "en"

// Messages formats localized text by message ID.
type Messages interface {
	// Message returns the text for id, or id itself when unknown.
	Message(id string) string
	// MessageDefault returns the text for id, or fallback when unknown.
	MessageDefault(id, fallback string) string
}

// Bundle holds the catalogs of every supported language.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []language.Tag
	matcher   language.Matcher
}

// LoadEmbedded loads the catalogs shipped with the binary.
func LoadEmbedded(fallback string) (*Bundle, error) {
	sub, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub, fallback)
}

// Load reads every <lang>.yaml file in fsys. The fallback catalog must exist.
func Load(fsys fs.FS, fallback string) (*Bundle, error) {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if fallback == "" {
		fallback = DefaultFallback
	}
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	b := &Bundle{dict: map[string]map[string]string{}, fallback: fallback}
	for _, name := range names {
		lang := strings.ToLower(strings.TrimSuffix(path.Base(name), ".yaml"))
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("load locale %s: %w", lang, err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", lang, err)
		}
		b.dict[lang] = m
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}

	// The matcher reports the first tag when nothing matches, so the
	// fallback goes first.
	b.supported = append(b.supported, language.Make(fallback))
	for _, name := range b.Supported() {
		if name != fallback {
			b.supported = append(b.supported, language.Make(name))
		}
	}
	b.matcher = language.NewMatcher(b.supported)
	return b, nil
}

// Supported lists the loaded languages in lexical order.
func (b *Bundle) Supported() []string {
	out := make([]string, 0, len(b.dict))
	for k := range b.dict {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether a catalog exists for lang.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.dict[strings.ToLower(lang)]
	return ok
}

// T returns translation for key in lang, falling back to the default
// language and finally the key.
func (b *Bundle) T(lang, key string) string {
	if v, ok := b.lookup(lang, key); ok {
		return v
	}
	return key
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	if m, ok := b.dict[strings.ToLower(lang)]; ok {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Resolve chooses the best supported language from an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, confidence := b.matcher.Match(tags...)
	if confidence == language.No {
		return b.fallback
	}
	base, _ := b.supported[idx].Base()
	return base.String()
}

// Localizer returns Messages for lang with the given placeholder values,
// e.g. {"siteName": "Finite Field"}.
func (b *Bundle) Localizer(lang string, vars map[string]string) *Localizer {
	if !b.IsSupported(lang) {
		lang = b.fallback
	}
	var replacer *strings.Replacer
	if len(vars) > 0 {
		pairs := make([]string, 0, len(vars)*2)
		for k, v := range vars {
			pairs = append(pairs, "{"+k+"}", v)
		}
		replacer = strings.NewReplacer(pairs...)
	}
	return &Localizer{bundle: b, lang: strings.ToLower(lang), replacer: replacer}
}

// Localizer implements Messages for one language.
type Localizer struct {
	bundle   *Bundle
	lang     string
	replacer *strings.Replacer
}

// Lang returns the language of the localizer.
func (l *Localizer) Lang() string { return l.lang }

// Message implements Messages.
func (l *Localizer) Message(id string) string {
	return l.MessageDefault(id, id)
}

// MessageDefault implements Messages.
func (l *Localizer) MessageDefault(id, fallback string) string {
	v, ok := l.bundle.lookup(l.lang, id)
	if !ok {
		v = fallback
	}
	if l.replacer != nil {
		v = l.replacer.Replace(v)
	}
	return v
}

// Format returns the message for id with extra placeholder values applied
// after the localizer's own.
func (l *Localizer) Format(id string, vars map[string]string) string {
	v := l.Message(id)
	for k, val := range vars {
		v = strings.ReplaceAll(v, "{"+k+"}", val)
	}
	return v
}
