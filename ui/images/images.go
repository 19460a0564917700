package images

import (
	"bytes"
	"image"
	"image/png"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return
// an empty slice; Tk photo construction treats empty data as no image.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
