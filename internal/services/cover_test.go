package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/gcp"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

func newLocalCover(t *testing.T) (CoverService, string) {
	t.Helper()
	root := t.TempDir()
	bucket, err := gcp.NewLocalBucketService(logger.Nop(), root, "http://media.test/")
	require.NoError(t, err)
	cover, err := NewCoverService(logger.Nop(), bucket, nil)
	require.NoError(t, err)
	return cover, root
}

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTitleInitials(t *testing.T) {
	cases := map[string]string{
		"Everyday German":       "EG",
		"  ¿Qué tal? amigos  ":  "QT",
		"deutsch":               "D",
		"1000 words for travel": "1W",
		"":                      "?",
	}
	for in, want := range cases {
		assert.Equal(t, want, titleInitials(in), "title %q", in)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#1E6091")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x1e, G: 0x60, B: 0x91, A: 255}, c)

	_, err = parseHexColor("12345")
	assert.Error(t, err)
	_, err = NewCoverService(logger.Nop(), nil, []string{"zzzzzz"})
	assert.Error(t, err)
}

func TestProcessUploadedCoverCropsToPortrait(t *testing.T) {
	out, err := processUploadedCover(solidPNG(t, 400, 100), coverWidth, coverHeight)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, coverWidth, cfg.Width)
	assert.Equal(t, coverHeight, cfg.Height)

	_, err = processUploadedCover([]byte("not an image"), coverWidth, coverHeight)
	assert.Error(t, err)
}

func TestGenerateAndUploadReplacesPreviousCover(t *testing.T) {
	cover, root := newLocalCover(t)
	book := &types.Book{Title: "Everyday German", Language: "en", TargetLanguage: "de", Level: "A1"}
	book.ID = uuid.New()
	ctx := context.Background()

	require.NoError(t, cover.GenerateAndUpload(ctx, nil, book))
	first := book.CoverKey
	assert.True(t, strings.HasPrefix(first, "books/"+book.ID.String()+"/"))
	assert.True(t, strings.HasPrefix(book.CoverURL, "http://media.test/media/cover/books/"))

	require.NoError(t, cover.UploadFromImage(ctx, nil, book, solidPNG(t, 90, 120)))
	assert.NotEqual(t, first, book.CoverKey)

	matches, err := filepath.Glob(filepath.Join(root, "*", "books", book.ID.String(), "*.png"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	_, err = os.Stat(matches[0])
	assert.NoError(t, err)
}
