package imagepkg

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// IsDataURI reports whether s looks like a data: URI.
func IsDataURI(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// ParseInline decodes an already-embedded image value: either a data URI
// ("data:image/png;base64,...") or bare base64.
func ParseInline(value string) (Payload, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Payload{}, errors.New("empty inline value")
	}

	declared := ""
	var data []byte
	if IsDataURI(value) {
		meta, body, ok := strings.Cut(value[5:], ",")
		if !ok {
			return Payload{}, errors.New("data uri without payload")
		}
		params := strings.Split(meta, ";")
		declared = params[0]
		isBase64 := false
		for _, p := range params[1:] {
			if strings.EqualFold(strings.TrimSpace(p), "base64") {
				isBase64 = true
			}
		}
		if isBase64 {
			b, err := decodeBase64(body)
			if err != nil {
				return Payload{}, err
			}
			data = b
		} else {
			s, err := url.PathUnescape(body)
			if err != nil {
				return Payload{}, fmt.Errorf("data uri: %w", err)
			}
			data = []byte(s)
		}
	} else {
		b, err := decodeBase64(value)
		if err != nil {
			return Payload{}, err
		}
		data = b
	}

	p := Payload{MediaType: mediaTypeFor(declared, data), Data: data}
	if _, err := p.Format(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Inline is ParseInline collapsed to an Asset.
func Inline(value string) Asset {
	p, err := ParseInline(value)
	if err != nil {
		return Unavailable()
	}
	return Available(p)
}

// EncodeDataURI is the inverse of ParseInline for data URIs.
func EncodeDataURI(p Payload) string {
	return "data:" + p.MediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return b, nil
}
