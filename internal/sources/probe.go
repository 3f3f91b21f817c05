package sources

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	// Decoders registered for DecodeConfig and image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/pwnholic/docexport/internal"
)

// Fetcher returns the encoded bytes behind an image reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// Router reads local references from disk and hands http(s) references
// to Remote.
type Router struct {
	Remote Fetcher
}

func (r Router) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if (Image{Ref: ref}).Remote() {
		if r.Remote == nil {
			return nil, fmt.Errorf("no remote fetcher for %s", ref)
		}
		return r.Remote.Fetch(ctx, ref)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Probe fills in the natural size of every image that has not been probed
// yet, reading at most limit images concurrently. docs is updated in place
// and also returned.
func Probe(ctx context.Context, docs []Document, fetcher Fetcher, limit int) ([]Document, error) {
	if limit < 1 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu    sync.Mutex
		sizes = make(map[string]image.Config)
	)

	for di := range docs {
		for pi := range docs[di].Pages {
			for ii := range docs[di].Pages[pi].Images {
				img := &docs[di].Pages[pi].Images[ii]
				if img.Probed() {
					continue
				}
				g.Go(func() error {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}

					mu.Lock()
					cfg, seen := sizes[img.Ref]
					mu.Unlock()

					if !seen {
						data, err := fetcher.Fetch(ctx, img.Ref)
						if err != nil {
							return fmt.Errorf("probe %s: %w", img.Ref, err)
						}
						cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
						if err != nil {
							return fmt.Errorf("probe %s: failed to decode image config: %w", img.Ref, err)
						}
						mu.Lock()
						sizes[img.Ref] = cfg
						mu.Unlock()
					}

					img.Width, img.Height = cfg.Width, cfg.Height
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	internal.Debug("Probed %d distinct images", len(sizes))
	return docs, nil
}
