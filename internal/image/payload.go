package imagepkg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// GenericMediaType is used when neither the response nor the bytes name an
// image type.
const GenericMediaType = "image/*"

// ErrUndecodable means no registered image decoder accepts the bytes.
var ErrUndecodable = errors.New("undecodable image")

// Payload is image bytes plus their media type, ready to be drawn.
type Payload struct {
	MediaType string
	Data      []byte
}

// Format returns the decoder name for the payload bytes ("jpeg", "png", ...).
func (p Payload) Format() (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return format, nil
}

// Asset is an optional Payload. The zero value is unavailable.
type Asset struct {
	payload Payload
	ok      bool
}

func Available(p Payload) Asset { return Asset{payload: p, ok: true} }

func Unavailable() Asset { return Asset{} }

func (a Asset) Present() bool { return a.ok }

func (a Asset) Get() (Payload, bool) { return a.payload, a.ok }

// mediaTypeFor picks the declared content type when it names an image,
// then the sniffed type, then GenericMediaType.
func mediaTypeFor(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "image/" + format
	}
	return GenericMediaType
}
