// Package imagestore maps capture/expect image paths to codecs and a
// local-filesystem destination. PNG, JPEG, and GIF come from the
// standard library; BMP reads x/image/bmp, the only one of the four
// formats RFC 6143 clients commonly need that stdlib doesn't cover.
package imagestore

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// Save writes img to path, choosing a codec from path's extension.
func Save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imagestore: create %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", "":
		return png.Encode(f, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case ".gif":
		return gif.Encode(f, img, nil)
	case ".bmp":
		return bmp.Encode(f, img)
	default:
		return fmt.Errorf("imagestore: unsupported extension %q", ext)
	}
}

// Load reads a reference image from path, decoding by content (not
// extension) so a mislabeled file still loads.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imagestore: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imagestore: decode %s: %w", path, err)
	}
	return img, nil
}

func init() {
	// Register decoders so image.Decode recognizes all four formats.
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}
