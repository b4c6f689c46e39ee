// Package imagecodec converts between the API's base64 image payloads and
// decoded images. Payloads may carry a leading data-URI prefix
// ("data:image/png;base64,..."), which is stripped before decoding.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

// ErrDecode reports malformed or unsupported image input. Fatal to the
// request; never retried.
var ErrDecode = errors.New("image decode failed")

// DecodeBase64 strips any data-URI prefix and returns the raw image bytes.
func DecodeBase64(payload string) ([]byte, error) {
	if i := strings.Index(payload, ","); i >= 0 {
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
	}
	return data, nil
}

// DecodeImage decodes PNG, JPEG or GIF bytes into an image.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// DecodeBase64Image combines DecodeBase64 and DecodeImage.
func DecodeBase64Image(payload string) (image.Image, error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}

// ToGray lowers any image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	g := image.NewGray(img.Bounds())
	draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
	return g
}

// EncodePNG returns the image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeBase64PNG returns the image as a base64 PNG string, without a
// data-URI prefix.
func EncodeBase64PNG(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
