package imagepkg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// Normalize converts a payload into a form every renderer accepts: plain
// JPEG and PNG are kept as is, everything else is decoded and re-encoded as
// 8-bit PNG.
func Normalize(p Payload) (Payload, error) {
	format, err := p.Format()
	if err != nil {
		return Payload{}, err
	}
	if Embeddable(p) {
		return Payload{MediaType: "image/" + format, Data: p.Data}, nil
	}
	img, err := Decode(p)
	if err != nil {
		return Payload{}, err
	}
	var buf bytes.Buffer
	// Clone flattens to 8-bit NRGBA
	if err := imaging.Encode(&buf, imaging.Clone(img), imaging.PNG); err != nil {
		return Payload{}, fmt.Errorf("encode png: %w", err)
	}
	return Payload{MediaType: "image/png", Data: buf.Bytes()}, nil
}

// Embeddable reports whether the bytes are a JPEG or PNG a PDF writer can
// embed without re-encoding: JPEG in gray, YCbCr or CMYK; PNG at 8 bits or
// less and not interlaced.
func Embeddable(p Payload) bool {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		return false
	}
	switch format {
	case "jpeg":
		switch cfg.ColorModel {
		case color.GrayModel, color.YCbCrModel, color.CMYKModel:
			return true
		}
	case "png":
		// IHDR: bit depth at offset 24, interlace method at offset 28
		return len(p.Data) > 28 && p.Data[24] <= 8 && p.Data[28] == 0
	}
	return false
}

// Decode decodes the payload, honoring EXIF orientation for photos.
func Decode(p Payload) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(p.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

// Fit resizes img to exactly w×h pixels.
func Fit(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
