package imagepkg

import (
	"bytes"
	"fmt"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// GenerateQRPNG returns PNG bytes of a QR code for the given text.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	pngBytes, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	// validate png decode
	_, err = png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}
	return pngBytes, nil
}

// QRPayload encodes text as a QR code payload, used for barcode values that
// arrive as plain text instead of an image.
func QRPayload(text string, size int) (Payload, error) {
	b, err := GenerateQRPNG(text, size)
	if err != nil {
		return Payload{}, fmt.Errorf("qr encode: %w", err)
	}
	return Payload{MediaType: "image/png", Data: b}, nil
}
