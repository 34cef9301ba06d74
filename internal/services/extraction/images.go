package extraction

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/lingua-backend/internal/platform/apierr"
)

// maxImagePixels bounds width*height before decoding. Headers are cheap to
// forge, and a few-KB PNG can claim a size whose decode buffer runs to GBs.
const maxImagePixels = 50_000_000

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ImageInput is one uploaded page.
type ImageInput struct {
	Name string
	Data []byte
}

type Limits struct {
	MaxImages int
	MaxBytes  int
	MaxEdgePx int
}

// PreparedImage keeps the upload as-is for storage plus a downscaled JPEG
// for the model.
type PreparedImage struct {
	Original    []byte
	ContentType string
	Ext         string
	JPEG        []byte
	Width       int
	Height      int
}

// sniff returns the content type and storage extension, or an error for
// anything that is not an accepted image.
func sniff(data []byte) (string, string, error) {
	ct := http.DetectContentType(data)
	ext, ok := allowedImageTypes[ct]
	if !ok {
		return "", "", fmt.Errorf("unsupported image type %s", ct)
	}
	return ct, ext, nil
}

// checkDimensions reads only the image header.
func checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("empty image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return fmt.Errorf("image is %dx%d, above the %d pixel limit", cfg.Width, cfg.Height, maxImagePixels)
	}
	return nil
}

func ValidateImages(images []ImageInput, lim Limits) error {
	if len(images) == 0 {
		return apierr.Invalid("at least one image required")
	}
	if lim.MaxImages > 0 && len(images) > lim.MaxImages {
		return apierr.Invalid("too many images: %d > %d", len(images), lim.MaxImages)
	}
	for i, img := range images {
		if len(img.Data) == 0 {
			return apierr.Invalid("image %d is empty", i+1)
		}
		if lim.MaxBytes > 0 && len(img.Data) > lim.MaxBytes {
			return apierr.Invalid("image %d exceeds %d bytes", i+1, lim.MaxBytes)
		}
		if _, _, err := sniff(img.Data); err != nil {
			return apierr.Invalid("image %d: %v", i+1, err)
		}
		if err := checkDimensions(img.Data); err != nil {
			return apierr.Invalid("image %d: %v", i+1, err)
		}
	}
	return nil
}

// PrepareImage decodes data, scales it so the longest edge is at most
// maxEdge, flattens transparency onto white and re-encodes as JPEG.
func PrepareImage(data []byte, maxEdge int) (PreparedImage, error) {
	ct, ext, err := sniff(data)
	if err != nil {
		return PreparedImage{}, err
	}
	if err := checkDimensions(data); err != nil {
		return PreparedImage{}, apierr.Invalid("%v", err)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return PreparedImage{}, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return PreparedImage{}, fmt.Errorf("empty image")
	}
	dw, dh := w, h
	if maxEdge > 0 && (w > maxEdge || h > maxEdge) {
		if w >= h {
			dw, dh = maxEdge, max(1, h*maxEdge/w)
		} else {
			dw, dh = max(1, w*maxEdge/h), maxEdge
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if dw == w && dh == h {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 85}); err != nil {
		return PreparedImage{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return PreparedImage{
		Original:    data,
		ContentType: ct,
		Ext:         ext,
		JPEG:        out.Bytes(),
		Width:       dw,
		Height:      dh,
	}, nil
}
