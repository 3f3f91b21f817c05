package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	// Formats accepted by the decoder.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pwnholic/docexport/internal/sources"
)

var (
	ErrEmptyImage      = errors.New("cache: empty image data")
	ErrInvalidImage    = errors.New("cache: invalid image dimensions")
	DefaultJPEGQuality = 90
)

// Bitmap is a decoded image re-encoded as JPEG for the container writer.
type Bitmap struct {
	Ref    string
	Data   []byte
	Width  int
	Height int
	Format string
}

// Loader produces the bitmap for one source image.
type Loader interface {
	Load(ctx context.Context, img sources.Image) (*Bitmap, error)
}

type LoaderFunc func(ctx context.Context, img sources.Image) (*Bitmap, error)

func (f LoaderFunc) Load(ctx context.Context, img sources.Image) (*Bitmap, error) {
	return f(ctx, img)
}

// Decoder fetches image bytes, decodes them and re-encodes them as JPEG.
type Decoder struct {
	Fetcher sources.Fetcher
	Quality int
}

func NewDecoder(fetcher sources.Fetcher, quality int) *Decoder {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Decoder{Fetcher: fetcher, Quality: quality}
}

func (d *Decoder) Load(ctx context.Context, img sources.Image) (*Bitmap, error) {
	data, err := d.Fetcher.Fetch(ctx, img.Ref)
	if err != nil {
		return nil, err
	}
	return d.Decode(img.Ref, data)
}

// Decode turns encoded bytes into a Bitmap.
func (d *Decoder) Decode(ref string, data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImage, width, height)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.Quality}); err != nil {
		return nil, fmt.Errorf("failed to convert image to JPEG: %w (original format: %s)", err, format)
	}

	return &Bitmap{
		Ref:    ref,
		Data:   buf.Bytes(),
		Width:  width,
		Height: height,
		Format: format,
	}, nil
}
