package extractor

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klipworks/kliping/models"
)

func TestNewRegistry_FixedSiteSet(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"detik", "kompas", "tribunnews"}, reg.Sites())
}

func TestRegistry_Get(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	ex, err := reg.Get("detik")
	require.NoError(t, err)
	assert.Equal(t, "detik", ex.Site())
}

func TestRegistry_UnknownSite(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.Get("cnn")
	require.Error(t, err)

	var serr *models.ScrapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ErrCodeUnknownSite, serr.Code)
}

func TestValidateSelectors(t *testing.T) {
	assert.NoError(t, validateSelectors("article.list-content__item", "h3 a"))
	assert.Error(t, validateSelectors("article..broken"))
}

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://www.detik.com/search/searchall?query=x")
	require.NoError(t, err)

	tests := []struct {
		name string
		href string
		want string
	}{
		{"absolute", "https://news.detik.com/d-1", "https://news.detik.com/d-1"},
		{"relative path", "/berita/d-2", "https://www.detik.com/berita/d-2"},
		{"surrounding whitespace", "  https://news.detik.com/d-3  ", "https://news.detik.com/d-3"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveHref(base, tt.href))
		})
	}
}
