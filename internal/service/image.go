package service

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"io"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const jpegQuality = 85

// normalizeImage decodes an image, applies EXIF orientation, fits it inside
// maxEdge and re-encodes it as JPEG.
func normalizeImage(r io.Reader, maxEdge int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxEdge || b.Dy() > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

var avatarPalette = []color.NRGBA{
	{0xFF, 0x9C, 0x01, 0xFF},
	{0x1E, 0x88, 0xE5, 0xFF},
	{0x43, 0xA0, 0x47, 0xFF},
	{0x8E, 0x24, 0xAA, 0xFF},
	{0xE5, 0x39, 0x35, 0xFF},
	{0x00, 0x89, 0x7B, 0xFF},
}

// Initials returns up to two upper-case initials of name.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToUpper(r))
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// RenderInitialsAvatar draws the initials of name on a colour derived from
// the name and returns a size x size PNG.
func RenderInitialsAvatar(name string, size int) ([]byte, error) {
	initials := Initials(name)
	face := basicfont.Face7x13

	// Draw on a small tile and scale up so the bitmap font stays crisp.
	const tile = 32
	h := fnv.New32a()
	h.Write([]byte(name))
	bg := avatarPalette[h.Sum32()%uint32(len(avatarPalette))]

	canvas := imaging.New(tile, tile, bg)
	textWidth := font.MeasureString(face, initials).Ceil()
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P((tile-textWidth)/2, (tile+face.Ascent-face.Descent)/2),
	}
	d.DrawString(initials)

	dst := imaging.Resize(canvas, size, size, imaging.NearestNeighbor)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
