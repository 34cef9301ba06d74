package extraction

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-backend/internal/platform/apierr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareImageDownscalesToJPEG(t *testing.T) {
	raw := pngBytes(t, 400, 100)
	p, err := PrepareImage(raw, 200)
	require.NoError(t, err)
	assert.Equal(t, "image/png", p.ContentType)
	assert.Equal(t, "png", p.Ext)
	assert.Equal(t, 200, p.Width)
	assert.Equal(t, 50, p.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(p.JPEG))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
	assert.Equal(t, raw, p.Original)
}

func TestPrepareImageKeepsSmallImages(t *testing.T) {
	p, err := PrepareImage(pngBytes(t, 30, 60), 200)
	require.NoError(t, err)
	assert.Equal(t, 30, p.Width)
	assert.Equal(t, 60, p.Height)
}

func TestValidateImages(t *testing.T) {
	ok := ImageInput{Name: "a.png", Data: pngBytes(t, 4, 4)}
	lim := Limits{MaxImages: 2, MaxBytes: 1 << 20}

	assert.NoError(t, ValidateImages([]ImageInput{ok}, lim))
	assert.Error(t, ValidateImages(nil, lim))
	assert.Error(t, ValidateImages([]ImageInput{ok, ok, ok}, lim))
	assert.Error(t, ValidateImages([]ImageInput{{Name: "x.txt", Data: []byte("hello world")}}, lim))
	assert.Error(t, ValidateImages([]ImageInput{ok}, Limits{MaxBytes: 10}))
}

// withPNGSize rewrites the IHDR dimensions of a PNG and fixes its CRC, so
// the header claims a size the pixel data never backs.
func withPNGSize(t *testing.T, raw []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), raw...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestOversizedHeaderRejectedBeforeDecode(t *testing.T) {
	forged := withPNGSize(t, pngBytes(t, 2, 2), 30000, 30000)
	require.Less(t, len(forged), 1<<10)

	err := ValidateImages([]ImageInput{{Name: "huge.png", Data: forged}}, Limits{MaxImages: 1, MaxBytes: 1 << 20})
	requireInvalid(t, err)

	_, err = PrepareImage(forged, 200)
	requireInvalid(t, err)

	// Same trick within the cap only fails later, when pixel data runs out.
	assert.NoError(t, checkDimensions(withPNGSize(t, pngBytes(t, 2, 2), 5000, 5000)))
}

func requireInvalid(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	status, code := apierr.Resolve(err, "internal")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", code)
	assert.Contains(t, err.Error(), "pixel limit")
}

func TestPromptsRenderAllKinds(t *testing.T) {
	set, err := loadPrompts()
	require.NoError(t, err)
	for _, kind := range []string{"vocabulary", "conversation"} {
		p, err := set.render(kind, PromptData{
			BookTitle:      "Deutsch 1",
			Language:       "de",
			TargetLanguage: "en",
			LessonTitle:    "Zu Hause",
			Existing:       []string{"Haus"},
			Hint:           "left page only",
			OCRText:        "[page 1]\nHaus",
		})
		require.NoError(t, err, kind)
		assert.NotEmpty(t, p.System)
		assert.NotEmpty(t, p.SchemaName)
		assert.Contains(t, p.User, "Zu Hause")
		assert.Contains(t, p.User, "- Haus")
		assert.Contains(t, p.User, "left page only")
	}
	_, err = set.render("pictures", PromptData{})
	assert.Error(t, err)
}
