package service

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeImage_KeepsSmallImages(t *testing.T) {
	f, err := os.Open(writePNG(t, 300, 200))
	require.NoError(t, err)
	defer f.Close()

	data, err := normalizeImage(f, 1280)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestNormalizeImage_RejectsGarbage(t *testing.T) {
	_, err := normalizeImage(bytes.NewReader([]byte("definitely not an image")), 1280)
	assert.Error(t, err)
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"Jane Doe":          "JD",
		"jane":              "J",
		"  ada  lovelace x ": "AL",
		"":                  "?",
		"!!! ???":           "?",
	}
	for in, want := range tests {
		assert.Equal(t, want, Initials(in), "Initials(%q)", in)
	}
}

func TestRenderInitialsAvatar(t *testing.T) {
	data, err := RenderInitialsAvatar("Jane Doe", 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())

	again, err := RenderInitialsAvatar("Jane Doe", 256)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
