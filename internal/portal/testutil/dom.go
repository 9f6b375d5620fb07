package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"

	"finitefield.org/profile-portal/internal/portal/i18n"
)

// TestSiteName is the site name substituted into messages under test.
const TestSiteName = "Finite Field"

// ParseHTML parses the provided HTML payload into a goquery document for assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// Render renders component and parses the result.
func Render(t testing.TB, component templ.Component) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return ParseHTML(t, buf.Bytes())
}

// Messages returns the English catalog with TestSiteName substituted.
func Messages(t testing.TB) *i18n.Localizer {
	t.Helper()

	bundle, err := i18n.LoadEmbedded(i18n.DefaultFallback)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return bundle.Localizer("en", map[string]string{"siteName": TestSiteName})
}
