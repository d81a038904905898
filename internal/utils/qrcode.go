package utils

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// qrRenderSize is the raster size stored on certificates. The payload is
// generated once at issuance and reused by every renderer, which scales it
// down to the element's placed size.
const qrRenderSize = 300

// GenerateQRCodePNG renders content as a PNG QR code.
func GenerateQRCodePNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}
	return png, nil
}

// GenerateQRDataURL renders content as a base64 PNG data URL, the storage
// format certificates carry for their QR element.
func GenerateQRDataURL(content string) (string, error) {
	png, err := GenerateQRCodePNG(content, qrRenderSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
