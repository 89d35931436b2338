// Package imaging decodes, resizes, crops and re-encodes uploaded images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrNotImage = errors.New("not an image")

// MaxPixels bounds the decoded size of any image this package will load.
const MaxPixels = 40_000_000

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	WebP Format = "webp"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

var contentTypes = map[Format]string{
	PNG:  "image/png",
	JPEG: "image/jpeg",
	WebP: "image/webp",
	BMP:  "image/bmp",
	GIF:  "image/gif",
	TIFF: "image/tiff",
}

// ContentType maps a detected format to its MIME type.
func ContentType(f Format) string {
	return contentTypes[f]
}

// Decode loads the whole image. Images over MaxPixels are refused before any
// pixel data is allocated.
func Decode(data []byte) (image.Image, Format, error) {
	if _, _, err := Probe(data); err != nil {
		return nil, "", err
	}
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return img, Format(name), nil
}

// Probe reads only the header. It is enough to tell whether a transform
// would succeed.
func Probe(data []byte) (image.Config, Format, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return image.Config{}, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrNotImage, cfg.Width, cfg.Height, MaxPixels)
	}
	return cfg, Format(name), nil
}

// Fit scales img down so that neither side exceeds maxDim, keeping the
// aspect ratio. Images already within the bound are returned unchanged.
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, (h*maxDim+w/2)/w)
	} else {
		nw = max(1, (w*maxDim+h/2)/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Crop takes the centred square of img and scales it to size×size.
func Crop(img image.Image, size int) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	src := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

// Encode writes img in format f. WebP has no encoder available and is
// written as PNG; the returned format is the one actually used.
func Encode(img image.Image, f Format) ([]byte, Format, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	case GIF:
		err = gif.Encode(&buf, img, nil)
	case BMP:
		err = bmp.Encode(&buf, img)
	case TIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		f = PNG
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", f, err)
	}
	return buf.Bytes(), f, nil
}

// Shrink decodes data, fits it within maxDim and re-encodes it in its own
// format. It returns ErrNotImage for anything that does not decode.
func Shrink(data []byte, maxDim int) ([]byte, string, error) {
	img, f, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	out, used, err := Encode(Fit(img, maxDim), f)
	if err != nil {
		return nil, "", err
	}
	return out, ContentType(used), nil
}

type Options struct {
	Size int
	Crop bool
}

// Transform renders a serving variant. Size 0 without crop returns the
// original bytes.
func Transform(data []byte, opts Options) ([]byte, string, error) {
	img, f, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	if opts.Size <= 0 && !opts.Crop {
		return data, ContentType(f), nil
	}

	var out image.Image
	if opts.Crop {
		size := opts.Size
		if size <= 0 {
			size = min(img.Bounds().Dx(), img.Bounds().Dy())
		}
		out = Crop(img, size)
	} else {
		out = Fit(img, opts.Size)
	}
	encoded, used, err := Encode(out, f)
	if err != nil {
		return nil, "", err
	}
	return encoded, ContentType(used), nil
}
