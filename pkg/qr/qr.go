// Package qr binds pass identity into the QR wire payload and renders it.
package qr

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PassPayload is the exact JSON shape embedded in the QR image. It is the
// wire contract between issuance and the scanner: the scanned JSON must
// decode back into the identical object.
type PassPayload struct {
	ID         string `json:"id"`
	StudentID  string `json:"studentId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber"`
}

// Encode serialises the payload into its canonical JSON form.
func (p PassPayload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode pass payload: %w", err)
	}
	return string(data), nil
}

// Decode parses a scanned payload string.
func Decode(raw string) (PassPayload, error) {
	var p PassPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return PassPayload{}, fmt.Errorf("decode pass payload: %w", err)
	}
	return p, nil
}

// Generator renders pass payloads into PNG images.
type Generator struct {
	size int
}

// NewGenerator builds a Generator producing images of the given pixel size.
func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = 500
	}
	return &Generator{size: size}
}

// Render encodes the payload into a PNG QR image. Highest error
// correction so the code survives email client scaling.
func (g *Generator) Render(p PassPayload) ([]byte, error) {
	data, err := p.Encode()
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(data, qrcode.High, g.size)
	if err != nil {
		return nil, fmt.Errorf("render qr image: %w", err)
	}
	return png, nil
}
