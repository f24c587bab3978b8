package source_test

import (
	"path/filepath"
	"testing"

	"github.com/c360studio/ontokg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandLocators(t *testing.T) {
	tests := []struct {
		name     string
		locators []string
		want     []string
	}{
		{
			name:     "plain paths pass through even when missing",
			locators: []string{"onto/a.owl", "onto/missing.ttl"},
			want:     []string{"onto/a.owl", "onto/missing.ttl"},
		},
		{
			name:     "urls pass through",
			locators: []string{"https://example.org/onto.owl?x=*", "file:///tmp/a.ttl"},
			want:     []string{"https://example.org/onto.owl?x=*", "file:///tmp/a.ttl"},
		},
		{
			name:     "single level glob is sorted",
			locators: []string{"testdata/*.txt", "testdata/*.md"},
			want: []string{
				filepath.Join("testdata", "plain.txt"),
				filepath.Join("testdata", "notes.md"),
			},
		},
		{
			name:     "recursive glob skips directories",
			locators: []string{"testdata/**/*.txt"},
			want: []string{
				filepath.Join("testdata", "nested", "more.txt"),
				filepath.Join("testdata", "plain.txt"),
			},
		},
		{
			name:     "duplicates keep first position",
			locators: []string{filepath.Join("testdata", "notes.md"), "testdata/*.md", "  "},
			want:     []string{filepath.Join("testdata", "notes.md")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := source.ExpandLocators(tt.locators)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandLocators_NoMatches(t *testing.T) {
	_, err := source.ExpandLocators([]string{"testdata/*.owl"})
	assert.ErrorIs(t, err, source.ErrNoMatches)
}

func TestIsURL(t *testing.T) {
	assert.True(t, source.IsURL("http://example.org/a.owl"))
	assert.True(t, source.IsURL("file:///a.owl"))
	assert.False(t, source.IsURL("onto/a.owl"))
	assert.False(t, source.IsURL(`C:\onto\a.owl`))
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		locator string
		want    string
		local   bool
	}{
		{"onto/a.owl", "onto/a.owl", true},
		{"file:///srv/onto/a.owl", filepath.FromSlash("/srv/onto/a.owl"), true},
		{"http://example.org/a.owl", "", false},
		{"https://example.org/a.owl", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			got, ok := source.LocalPath(tt.locator)
			assert.Equal(t, tt.local, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
