package certificates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSanitisesAndDeduplicates(t *testing.T) {
	t.Parallel()

	got := Normalize([]Certificate{
		{
			Type:         CertificateType{Name: " Verified Certificate "},
			Title:        "<b>Seal</b> Carving &amp; Ink",
			Organization: "Hanko <script>alert(1)</script>Academy",
			DownloadURL:  "https://example.com/a.pdf",
		},
		{Title: "Duplicate", DownloadURL: "https://example.com/a.pdf"},
		{Title: "No link"},
		{Title: "Second", DownloadURL: " https://example.com/b.pdf "},
	})

	require.Len(t, got, 2)
	require.Equal(t, "Verified Certificate", got[0].Type.Name)
	require.Equal(t, "Seal Carving & Ink", got[0].Title)
	require.Equal(t, "Hanko Academy", got[0].Organization)
	require.Equal(t, "Second", got[1].Title)
	require.Equal(t, "https://example.com/b.pdf", got[1].DownloadURL)
}

func TestNormalizeKeepsNilAndEmptyDistinct(t *testing.T) {
	t.Parallel()

	require.Nil(t, Normalize(nil))
	empty := Normalize([]Certificate{})
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestParseVisibility(t *testing.T) {
	t.Parallel()

	v, err := ParseVisibility("all_users")
	require.NoError(t, err)
	require.Equal(t, VisibilityAllUsers, v)

	v, err = ParseVisibility(" private ")
	require.NoError(t, err)
	require.Equal(t, VisibilityPrivate, v)

	for _, bad := range []string{"", "none", "everyone"} {
		_, err := ParseVisibility(bad)
		require.ErrorIs(t, err, ErrInvalidVisibility, bad)
	}
}

func TestParseEditMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []EditMode{EditModeEditing, EditModeEditable, EditModeEmpty, EditModeStatic} {
		got, err := ParseEditMode(string(mode))
		require.NoError(t, err)
		require.Equal(t, mode, got)
	}
	_, err := ParseEditMode("hidden")
	require.ErrorIs(t, err, ErrInvalidEditMode)
}

func TestStaticServiceReturnsCopies(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(map[string][]Certificate{
		"learner": {{Title: "One", DownloadURL: "/one.pdf"}},
	})

	list, err := svc.Certificates(context.Background(), "", "learner")
	require.NoError(t, err)
	require.Len(t, list, 1)
	list[0].Title = "mutated"

	again, err := svc.Certificates(context.Background(), "", "learner")
	require.NoError(t, err)
	require.Equal(t, "One", again[0].Title)

	unknown, err := svc.Certificates(context.Background(), "", "nobody")
	require.NoError(t, err)
	require.NotNil(t, unknown)
	require.Empty(t, unknown)
}

func TestTypeName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Verified Certificate", TypeName("verified"))
	require.Equal(t, "Professional Certificate", TypeName("no-id-professional"))
	require.Equal(t, "Honor Code Certificate", TypeName("HONOR"))
	require.Equal(t, "Certificate", TypeName("credit"))
	require.Equal(t, "", TypeName(""))
}
