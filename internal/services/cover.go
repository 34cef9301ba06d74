package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"strings"
	"time"
	"unicode"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/dbctx"
	"github.com/yungbote/lingua-backend/internal/platform/gcp"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

const (
	coverWidth  = 600
	coverHeight = 800
)

var defaultCoverColors = []string{
	"#1E6091", "#168AAD", "#34A0A4", "#52B69A", "#76C893",
	"#B5179E", "#7209B7", "#F3722C", "#F8961E", "#577590",
	"#9D0208", "#6A4C93",
}

type CoverService interface {
	RenderCover(book *types.Book) (bytes.Buffer, error)
	GenerateAndUpload(ctx context.Context, tx *gorm.DB, book *types.Book) error
	UploadFromImage(ctx context.Context, tx *gorm.DB, book *types.Book, raw []byte) error
}

type coverService struct {
	log           *logger.Logger
	bucketService gcp.BucketService
	colors        []color.NRGBA
	font          *truetype.Font
	now           func() time.Time
}

// NewCoverService parses the palette (hex strings) and the embedded Go Bold
// font. An empty palette falls back to the built-in colors.
func NewCoverService(log *logger.Logger, bucketService gcp.BucketService, palette []string) (CoverService, error) {
	serviceLog := log.With("service", "CoverService")
	if len(palette) == 0 {
		palette = defaultCoverColors
	}
	colors := make([]color.NRGBA, 0, len(palette))
	for _, h := range palette {
		c, err := parseHexColor(h)
		if err != nil {
			return nil, fmt.Errorf("cover color %q: %w", h, err)
		}
		colors = append(colors, c)
	}
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return &coverService{
		log:           serviceLog,
		bucketService: bucketService,
		colors:        colors,
		font:          f,
		now:           time.Now,
	}, nil
}

func (cs *coverService) face(size float64) font.Face {
	return truetype.NewFace(cs.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// pickColor is stable per book so a re-render keeps the same background.
func (cs *coverService) pickColor(id uuid.UUID) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	return cs.colors[int(h.Sum32()%uint32(len(cs.colors)))]
}

func (cs *coverService) RenderCover(book *types.Book) (bytes.Buffer, error) {
	var buf bytes.Buffer
	if book == nil {
		return buf, fmt.Errorf("book required")
	}
	dc := gg.NewContext(coverWidth, coverHeight)
	dc.SetColor(cs.pickColor(book.ID))
	dc.DrawRectangle(0, 0, coverWidth, coverHeight)
	dc.Fill()

	dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 40})
	dc.DrawRectangle(0, coverHeight*0.68, coverWidth, coverHeight*0.32)
	dc.Fill()

	dc.SetColor(color.White)
	dc.SetFontFace(cs.face(220))
	dc.DrawStringAnchored(titleInitials(book.Title), coverWidth/2, coverHeight*0.36, 0.5, 0.5)

	dc.SetFontFace(cs.face(40))
	dc.DrawStringWrapped(book.Title, coverWidth/2, coverHeight*0.74, 0.5, 0, coverWidth-80, 1.3, gg.AlignCenter)

	if lang := strings.TrimSpace(book.Language); lang != "" {
		dc.SetFontFace(cs.face(26))
		label := strings.ToUpper(lang)
		if level := strings.TrimSpace(book.Level); level != "" {
			label += " · " + level
		}
		dc.DrawStringAnchored(label, coverWidth/2, coverHeight-40, 0.5, 0.5)
	}

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (cs *coverService) GenerateAndUpload(ctx context.Context, tx *gorm.DB, book *types.Book) error {
	buf, err := cs.RenderCover(book)
	if err != nil {
		return err
	}
	return cs.store(ctx, tx, book, buf.Bytes())
}

func (cs *coverService) UploadFromImage(ctx context.Context, tx *gorm.DB, book *types.Book, raw []byte) error {
	if book == nil || book.ID == uuid.Nil {
		return fmt.Errorf("book required")
	}
	processed, err := processUploadedCover(raw, coverWidth, coverHeight)
	if err != nil {
		return apierr.Invalid("cover image: %v", err)
	}
	return cs.store(ctx, tx, book, processed.Bytes())
}

// store uploads under a versioned key so CDNs never serve a stale cover,
// then drops the previous object best-effort.
func (cs *coverService) store(ctx context.Context, tx *gorm.DB, book *types.Book, png []byte) error {
	oldKey := strings.TrimSpace(book.CoverKey)
	newKey := fmt.Sprintf("books/%s/%d.png", book.ID.String(), cs.now().UnixNano())

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	if err := cs.bucketService.UploadFile(dbc, gcp.BucketCategoryCover, newKey, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("failed to upload cover: %w", err)
	}
	book.CoverKey = newKey
	book.CoverURL = cs.bucketService.GetPublicURL(gcp.BucketCategoryCover, newKey)

	if oldKey != "" && oldKey != newKey {
		if err := cs.bucketService.DeleteFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryCover, oldKey); err != nil {
			cs.log.Warn("failed to delete old cover (ignored)", "old_key", oldKey, "error", err)
		}
	}
	return nil
}

// processUploadedCover center-crops to the cover aspect ratio and scales to
// width x height.
func processUploadedCover(raw []byte, width, height int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return out, fmt.Errorf("empty image")
	}
	cw, ch := w, w*height/width
	if ch > h {
		ch = h
		cw = h * width / height
	}
	x0 := b.Min.X + (w-cw)/2
	y0 := b.Min.Y + (h-ch)/2

	cropRect := image.Rect(0, 0, cw, ch)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContextForRGBA(dst)
	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex")
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}, nil
}

// titleInitials takes the first letter of the first two words.
func titleInitials(title string) string {
	var out []rune
	for _, word := range strings.Fields(title) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
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
