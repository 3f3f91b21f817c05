package exports

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	ErrCompression    = errors.New("exports: compression failed")
	ErrOutputTooLarge = errors.New("exports: output exceeds size limit")
)

// DefaultCompressQuality is the fixed quality handed to the compressor.
const DefaultCompressQuality = 50

// Optimizer compresses documents with pdfcpu: streams are flate encoded,
// duplicate images and fonts are shared and unused objects dropped.
// Embedded JPEG images are then re-encoded at the requested quality and
// kept only when that makes them smaller.
type Optimizer struct {
	conf *model.Configuration
}

func NewOptimizer() *Optimizer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Optimizer{conf: conf}
}

func (o *Optimizer) Compress(ctx context.Context, in, out string, quality int) error {
	if quality < 1 || quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("compress in place is not supported: %s", in)
	}

	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open raw document: %w", err)
	}
	defer src.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(src, o.conf)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	reencodeImages(pdfCtx, quality)

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	w := bufio.NewWriter(file)
	err = api.WriteContext(pdfCtx, w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// reencodeImages rewrites DCT encoded RGB and gray image streams at
// quality. Streams that cannot be decoded or would grow are left alone.
// It returns the number of streams replaced.
func reencodeImages(pdfCtx *model.Context, quality int) int {
	replaced := 0
	for _, entry := range pdfCtx.XRefTable.Table {
		if entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok || !jpegImage(sd.Dict) || len(sd.Raw) == 0 {
			continue
		}

		img, err := jpeg.Decode(bytes.NewReader(sd.Raw))
		if err != nil {
			continue
		}
		switch img.(type) {
		case *image.YCbCr, *image.Gray:
		default:
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil || buf.Len() >= len(sd.Raw) {
			continue
		}

		n := int64(buf.Len())
		sd.Raw = buf.Bytes()
		sd.Content = nil
		sd.StreamLength = &n
		sd.StreamLengthObjNr = nil
		sd.Dict["Length"] = types.Integer(n)
		entry.Object = sd
		replaced++
	}
	return replaced
}

func jpegImage(d types.Dict) bool {
	if subtype, _ := d["Subtype"].(types.Name); subtype != "Image" {
		return false
	}
	if filter, _ := d["Filter"].(types.Name); filter != "DCTDecode" {
		return false
	}
	cs, _ := d["ColorSpace"].(types.Name)
	return cs == "DeviceRGB" || cs == "DeviceGray"
}
