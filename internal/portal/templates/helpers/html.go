// Package helpers holds the small rendering primitives shared by the page
// templates.
package helpers

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Attr is a single HTML attribute. Boolean attributes render without a value.
type Attr struct {
	Name    string
	Value   string
	Boolean bool
}

// Attrs is an ordered attribute list.
type Attrs []Attr

// A returns a valued attribute.
func A(name, value string) Attr { return Attr{Name: name, Value: value} }

// Bool returns a boolean attribute.
func Bool(name string) Attr { return Attr{Name: name, Boolean: true} }

// Element renders <tag attrs>children</tag>.
func Element(tag string, attrs Attrs, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeOpen(w, tag, attrs); err != nil {
			return err
		}
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// Void renders a self-contained element such as <input>.
func Void(tag string, attrs Attrs) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeOpen(w, tag, attrs)
	})
}

// TextComponent returns a templ component that renders escaped text.
func TextComponent(value string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(value))
		return err
	})
}

// Fragment renders components one after another.
func Fragment(children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// When renders c only when cond holds.
func When(cond bool, c templ.Component) templ.Component {
	if !cond || c == nil {
		return templ.NopComponent
	}
	return c
}

// SafeURL returns a sanitised href value; unsafe schemes are replaced.
func SafeURL(raw string) string {
	return string(templ.URL(strings.TrimSpace(raw)))
}

// Classes joins non-empty class names.
func Classes(names ...string) string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return strings.Join(out, " ")
}

func writeOpen(w io.Writer, tag string, attrs Attrs) error {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(tag)
	for _, attr := range attrs {
		if attr.Name == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(attr.Name)
		if attr.Boolean {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(templ.EscapeString(attr.Value))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	_, err := io.WriteString(w, b.String())
	return err
}
