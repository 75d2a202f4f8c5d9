// Package assets loads the source image gallery.
//
// Loading is all-or-nothing: the renderer is only ever constructed with a
// complete gallery.
package assets

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrAssetLoad is returned when any gallery image fails to load.
var ErrAssetLoad = errors.New("assets: image load failed")

// Image is a decoded gallery entry.
type Image struct {
	Path string
	Img  *image.NRGBA
}

// Width returns the image width in pixels.
func (i *Image) Width() int { return i.Img.Bounds().Dx() }

// Height returns the image height in pixels.
func (i *Image) Height() int { return i.Img.Bounds().Dy() }

// LoadGallery decodes every path. If resize > 0 each image is resampled to
// resize x resize. Any failure aborts the whole load.
func LoadGallery(paths []string, resize int) ([]*Image, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: empty gallery", ErrAssetLoad)
	}

	gallery := make([]*Image, 0, len(paths))
	for _, path := range paths {
		img, err := LoadImage(path)
		if err != nil {
			return nil, err
		}
		if resize > 0 {
			img.Img = Resample(img.Img, resize, resize, draw.CatmullRom)
		}
		gallery = append(gallery, img)
	}
	return gallery, nil
}

// LoadImage decodes a single image file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetLoad, path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrAssetLoad, path, err)
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s: empty image", ErrAssetLoad, path)
	}

	return &Image{Path: path, Img: toNRGBA(src)}, nil
}

// Resample scales src to w x h with the given interpolator.
func Resample(src image.Image, w, h int, scaler draw.Interpolator) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Thumbnail returns a size x size preview of the image.
func (i *Image) Thumbnail(size int) *image.NRGBA {
	return Resample(i.Img, size, size, draw.ApproxBiLinear)
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
