// Package codec normalizes captured photos and fingerprints their payloads.
//
// Compress never fails: an input it cannot decode is passed through unchanged
// inside a data URI. Fingerprint never fails either and returns an empty
// string for payloads it cannot read. Neither is a correctness requirement of
// the local pipeline.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge = 1024
	DefaultQuality = 0.7

	// DefaultMaxPixels caps the decoded size of an input. Larger images are
	// passed through rather than decoded.
	DefaultMaxPixels = 50_000_000

	MimeJPEG = "image/jpeg"
)

var (
	ErrNotDataURI   = errors.New("not a data URI")
	ErrNotBase64URI = errors.New("data URI is not base64 encoded")
	ErrEmptyPayload = errors.New("data URI has empty payload")
)

// Codec holds the normalization parameters. The zero value uses the defaults.
type Codec struct {
	// MaxEdge bounds the longer side of the output, in pixels.
	MaxEdge int
	// Quality is the lossy JPEG quality in (0, 1].
	Quality float64
	// MaxPixels bounds width*height of an input accepted for decoding.
	MaxPixels int
}

// New returns a Codec with the given bounds, substituting defaults for
// non-positive values.
func New(maxEdge int, quality float64) *Codec {
	return &Codec{MaxEdge: maxEdge, Quality: quality}
}

func (c *Codec) maxEdge() int {
	if c.MaxEdge <= 0 {
		return DefaultMaxEdge
	}
	return c.MaxEdge
}

func (c *Codec) maxPixels() int64 {
	if c.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return int64(c.MaxPixels)
}

func (c *Codec) jpegQuality() int {
	q := c.Quality
	if q <= 0 || q > 1 {
		q = DefaultQuality
	}
	return int(math.Round(q * 100))
}

// Compress decodes raw (image bytes or a data URI holding them), scales it so
// the longer edge does not exceed MaxEdge and re-encodes it as JPEG. The result
// is a data URI. Input that cannot be decoded, or whose dimensions exceed
// MaxPixels, comes back unchanged.
func (c *Codec) Compress(raw []byte) string {
	payload := raw
	isURI := bytes.HasPrefix(raw, []byte("data:"))
	if isURI {
		_, p, err := DecodeDataURI(string(raw))
		if err != nil {
			return string(raw)
		}
		payload = p
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil || int64(cfg.Width)*int64(cfg.Height) > c.maxPixels() {
		return passThrough(raw, isURI)
	}

	src, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return passThrough(raw, isURI)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, c.scale(src), &jpeg.Options{Quality: c.jpegQuality()}); err != nil {
		return passThrough(raw, isURI)
	}
	return EncodeDataURI(MimeJPEG, buf.Bytes())
}

// passThrough keeps the original bytes. Raw bytes are still wrapped so every
// stored image is a data URI.
func passThrough(raw []byte, isURI bool) string {
	if isURI {
		return string(raw)
	}
	return EncodeDataURI(http.DetectContentType(raw), raw)
}

// scale draws src onto an opaque white canvas no larger than maxEdge on its
// longer side. JPEG has no alpha channel.
func (c *Codec) scale(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := fit(w, h, c.maxEdge())

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if nw == w && nh == h {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func fit(w, h, edge int) (int, int) {
	if w <= edge && h <= edge {
		return w, h
	}
	if w >= h {
		nh := int(math.Round(float64(h) * float64(edge) / float64(w)))
		return edge, max(nh, 1)
	}
	nw := int(math.Round(float64(w) * float64(edge) / float64(h)))
	return max(nw, 1), edge
}

// Fingerprint returns the lowercase hex SHA-256 of the binary payload carried
// by the data URI, or "" if the payload cannot be extracted.
func Fingerprint(encoded string) string {
	_, payload, err := DecodeDataURI(encoded)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// EncodeDataURI wraps payload into a base64 data URI.
func EncodeDataURI(mime string, payload []byte) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// DecodeDataURI splits a base64 data URI into its media type and payload.
func DecodeDataURI(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, ErrNotDataURI
	}
	meta, data, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrNotBase64URI
	}
	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, err
	}
	if len(payload) == 0 {
		return "", nil, ErrEmptyPayload
	}
	return mime, payload, nil
}
