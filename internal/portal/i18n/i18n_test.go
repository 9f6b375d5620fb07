package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestResolveHonorsQValues(t *testing.T) {
	t.Parallel()

	b, err := LoadEmbedded("en")
	require.NoError(t, err)

	require.Equal(t, "ja", b.Resolve("ja-JP;q=0.9, en;q=0.8"))
	require.Equal(t, "en", b.Resolve("ja;q=0.8, en;q=0.9"))
	require.Equal(t, "en", b.Resolve("fr-FR"))
	require.Equal(t, "en", b.Resolve(""))
	require.Equal(t, []string{"en", "ja"}, b.Supported())
}

func TestLocalizerSubstitutesSiteName(t *testing.T) {
	t.Parallel()

	b, err := LoadEmbedded("en")
	require.NoError(t, err)

	en := b.Localizer("en", map[string]string{"siteName": "Finite Field"})
	require.Equal(t, "Everyone on Finite Field", en.Message("profile.visibility.all_users"))
	require.Equal(t, "My Certificates", en.Message("profile.certificates.my.certificates"))
	require.Equal(t, "fallback text", en.MessageDefault("profile.unknown", "fallback text"))
	require.Equal(t, "profile.unknown", en.Message("profile.unknown"))
	require.Equal(t, "staff | Finite Field", en.Format("profile.page.title", map[string]string{"username": "staff"}))

	ja := b.Localizer("ja", map[string]string{"siteName": "Finite Field"})
	require.Equal(t, "Finite Field の全員", ja.Message("profile.visibility.all_users"))

	unknown := b.Localizer("de", nil)
	require.Equal(t, "en", unknown.Lang())
}

func TestCatalogsShareKeys(t *testing.T) {
	t.Parallel()

	b, err := LoadEmbedded("en")
	require.NoError(t, err)
	for key := range b.dict["en"] {
		_, ok := b.dict["ja"][key]
		require.True(t, ok, "ja catalog missing %s", key)
	}
}

func TestLoadRequiresFallback(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"ja.yaml": &fstest.MapFile{Data: []byte("greeting: こんにちは\n")},
	}
	_, err := Load(fsys, "en")
	require.Error(t, err)

	b, err := Load(fsys, "ja")
	require.NoError(t, err)
	require.Equal(t, "こんにちは", b.T("en", "greeting"))
}
