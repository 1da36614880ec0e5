// Package preview plays back a finalized prefab and rasterizes it so a
// conversion can be checked without the target editor.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/trifold/internal/convert"
	"github.com/Faultbox/trifold/internal/convert/geometry"
	"github.com/Faultbox/trifold/internal/convert/palette"
	"github.com/Faultbox/trifold/internal/logger"
	"github.com/Faultbox/trifold/internal/prefab"
)

var (
	// ErrNoFrames is returned when there is nothing to encode.
	ErrNoFrames = errors.New("preview: no frames")
	// ErrUnknownFormat is returned for an unsupported output extension.
	ErrUnknownFormat = errors.New("preview: unknown output format")
)

// Format is the output container.
type Format int

const (
	FormatWebP Format = iota // animated
	FormatTGA                // first frame only
)

func (f Format) String() string {
	switch f {
	case FormatWebP:
		return "webp"
	case FormatTGA:
		return "tga"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return FormatWebP, nil
	case ".tga":
		return FormatTGA, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Options control the rasterizer.
type Options struct {
	Width, Height int
	Supersample   int // render scale before downsampling, 1 disables
	Workers       int // concurrent frames, 0 means GOMAXPROCS
	Background    color.NRGBA
	FrameDuration float64 // seconds, used for animation timing
}

// DefaultOptions returns a 256x256 preview on a black background.
func DefaultOptions() Options {
	return Options{
		Width:         256,
		Height:        256,
		Supersample:   2,
		Background:    color.NRGBA{A: 255},
		FrameDuration: 1.0 / 24,
	}
}

// RenderFrame draws one frame back to front. Coordinates are normalized
// device coordinates, Y up.
func RenderFrame(tris []convert.PrefabTriangle, pal palette.Palette, opts Options) *image.RGBA {
	scale := max(opts.Supersample, 1)
	w, h := opts.Width*scale, opts.Height*scale

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	sorted := make([]convert.PrefabTriangle, len(tris))
	copy(sorted, tris)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Depth > sorted[j].Depth
	})

	r := vector.NewRasterizer(w, h)
	for _, tri := range sorted {
		pts := geometry.Primitive{Position: tri.Position, Scale: tri.Scale, Rotation: tri.Rotation}.Points()

		r.Reset(w, h)
		for i, p := range pts {
			x := float32((p.X + 1) / 2 * float64(w))
			y := float32((1 - p.Y) / 2 * float64(h))
			if i == 0 {
				r.MoveTo(x, y)
			} else {
				r.LineTo(x, y)
			}
		}
		r.ClosePath()
		r.Draw(img, img.Bounds(), image.NewUniform(swatch(pal, tri.Color)), image.Point{})
	}

	if scale == 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func swatch(pal palette.Palette, i int) color.NRGBA {
	if i < 0 || i >= len(pal) {
		return color.NRGBA{A: 255}
	}
	c := pal[i]
	return color.NRGBA{R: channel(c.X), G: channel(c.Y), B: channel(c.Z), A: 255}
}

func channel(v float64) uint8 {
	v = min(max(v, 0), 1)
	return uint8(v*255 + 0.5)
}

// Render samples the finalized prefab every opts.FrameDuration over the
// viewport lifetime and rasterizes the frames concurrently. Output order
// matches time order.
func Render(pf *prefab.Prefab, pal palette.Palette, opts Options) ([]image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("preview: invalid size %dx%d", opts.Width, opts.Height)
	}
	times, err := FrameTimes(pf, opts.FrameDuration)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	images := make([]image.Image, len(times))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, t := range times {
		g.Go(func() error {
			tris, err := Sample(pf, t)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			images[i] = RenderFrame(tris, pal, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Named("preview").Debug("rendered", zap.Int("frames", len(images)), zap.Int("workers", workers))
	return images, nil
}

// Encode writes the images in the given format.
func Encode(w io.Writer, format Format, images []image.Image, frameDuration float64) error {
	if len(images) == 0 {
		return ErrNoFrames
	}

	switch format {
	case FormatWebP:
		if len(images) == 1 {
			return nativewebp.Encode(w, images[0], nil)
		}
		ms := uint(frameDuration*1000 + 0.5)
		ani := &nativewebp.Animation{
			Images:    images,
			Durations: make([]uint, len(images)),
			Disposals: make([]uint, len(images)),
		}
		for i := range images {
			ani.Durations[i] = max(ms, 1)
		}
		return nativewebp.EncodeAll(w, ani, nil)
	case FormatTGA:
		return tga.Encode(w, images[0])
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// WriteFile renders the prefab and writes it to path. The format follows
// the extension.
func WriteFile(path string, pf *prefab.Prefab, pal palette.Palette, opts Options) error {
	if _, err := FormatFromPath(path); err != nil {
		return err
	}

	images, err := Render(pf, pal, opts)
	if err != nil {
		return err
	}
	return Save(path, images, opts.FrameDuration)
}

// Save encodes already rendered images to path.
func Save(path string, images []image.Image, frameDuration float64) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, format, images, frameDuration); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Named("preview").Info("written",
		zap.String("path", path),
		zap.Stringer("format", format),
		zap.Int("frames", len(images)))
	return nil
}
