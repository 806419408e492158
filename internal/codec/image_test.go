package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func compress(raw []byte) string { return (&Codec{}).Compress(raw) }

func decodeJPEG(t *testing.T, uri string) image.Image {
	t.Helper()
	mime, payload, err := DecodeDataURI(uri)
	require.NoError(t, err)
	require.Equal(t, MimeJPEG, mime)
	img, err := jpeg.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	return img
}

func TestCompress_DownsamplesLongerEdge(t *testing.T) {
	out := compress(pngBytes(t, 2048, 1024))
	require.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))

	b := decodeJPEG(t, out).Bounds()
	assert.Equal(t, 1024, b.Dx())
	assert.Equal(t, 512, b.Dy())
}

func TestCompress_PortraitAndCustomEdge(t *testing.T) {
	c := New(300, 0.5)
	b := decodeJPEG(t, c.Compress(pngBytes(t, 400, 1200))).Bounds()
	assert.Equal(t, 100, b.Dx())
	assert.Equal(t, 300, b.Dy())
}

func TestCompress_SmallImageKeepsSize(t *testing.T) {
	b := decodeJPEG(t, compress(pngBytes(t, 120, 80))).Bounds()
	assert.Equal(t, 120, b.Dx())
	assert.Equal(t, 80, b.Dy())
}

func TestCompress_AcceptsDataURIInput(t *testing.T) {
	in := EncodeDataURI("image/png", pngBytes(t, 1500, 10))
	b := decodeJPEG(t, compress([]byte(in))).Bounds()
	assert.Equal(t, 1024, b.Dx())
}

func TestCompress_IsDeterministic(t *testing.T) {
	raw := pngBytes(t, 640, 480)
	assert.Equal(t, compress(raw), compress(raw))
}

func TestCompress_UndecodableInputPassesThrough(t *testing.T) {
	raw := []byte("definitely not an image")
	out := compress(raw)

	_, payload, err := DecodeDataURI(out)
	require.NoError(t, err)
	assert.Equal(t, raw, payload)

	uri := "data:image/jpeg;base64,bm90IGEganBlZw=="
	assert.Equal(t, uri, compress([]byte(uri)))

	broken := "data:image/jpeg;base64,%%%"
	assert.Equal(t, broken, compress([]byte(broken)))
}

func TestCompress_OversizedImagePassesThroughUndecoded(t *testing.T) {
	raw := pngBytes(t, 40, 30)
	c := &Codec{MaxPixels: 40*30 - 1}

	out := c.Compress(raw)
	mime, payload, err := DecodeDataURI(out)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, raw, payload)

	uri := EncodeDataURI("image/png", raw)
	assert.Equal(t, uri, c.Compress([]byte(uri)))

	c.MaxPixels = 40 * 30
	assert.True(t, strings.HasPrefix(c.Compress(raw), "data:image/jpeg;base64,"))
}

func TestFingerprint_HashesDecodedPayload(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0x00, 0x01}
	uri := EncodeDataURI(MimeJPEG, payload)

	sum := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(sum[:]), Fingerprint(uri))
	assert.Equal(t, Fingerprint(uri), Fingerprint(uri))
	assert.Len(t, Fingerprint(uri), 64)
	assert.Equal(t, strings.ToLower(Fingerprint(uri)), Fingerprint(uri))
}

func TestFingerprint_DistinctContent(t *testing.T) {
	a := Fingerprint(compress(pngBytes(t, 64, 64)))
	b := Fingerprint(compress(pngBytes(t, 65, 64)))
	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
}

func TestFingerprint_FailuresReturnEmpty(t *testing.T) {
	for _, in := range []string{
		"",
		"plain text",
		"data:image/jpeg,notbase64",
		"data:image/jpeg;base64,***",
		"data:image/jpeg;base64,",
		"data:image/jpeg;base64",
	} {
		assert.Equal(t, "", Fingerprint(in), in)
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	uri := EncodeDataURI("image/png; charset=binary", []byte("abc"))
	assert.Equal(t, "data:image/png;base64,YWJj", uri)

	mime, payload, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("abc"), payload)

	_, _, err = DecodeDataURI("data:text/plain,abc")
	assert.ErrorIs(t, err, ErrNotBase64URI)
	_, _, err = DecodeDataURI("http://example.com/a.jpg")
	assert.ErrorIs(t, err, ErrNotDataURI)
}
