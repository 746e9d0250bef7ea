// Package codec implements the bounded-size, self-delimiting compression
// CodecCtx that VideoRing uses to turn one raw BGRA frame into a
// CompressedFrame blob and back.
package codec

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/keepclip/keepclip/internal/errors"
)

// formatRaw and formatJPEG tag the first byte of every stored blob so
// Decompress knows which path produced it. A frame that JPEG cannot
// compress under the cap falls back to an uncompressed store (see
// Ctx.Compress), rather than failing the caller's add().
const (
	formatJPEG byte = 0x00
	formatRaw  byte = 0x01
)

// jpegEOI is the two-byte End-Of-Image marker every JPEG stream ends
// with. It is kept as a redundant corruption check on top of the
// length-prefixed disk-tier record (see videoring's disk layout):
// DiskFrameRecord trusts the stored blob length to avoid scanning, but a
// blob that does not end in this marker is still reported as corrupted.
var jpegEOI = []byte{0xFF, 0xD9}

// Ctx compresses raw BGRA frames to a bounded-size blob and back. Ctx
// holds no mutable state and is safe for concurrent use by multiple
// producer/extractor goroutines.
type Ctx struct {
	width, height int
	quality       int
	frameSize     int
	maxCompressed int
}

// New constructs a Ctx for frames of the given dimensions. quality is the
// opaque 0..100 JPEG quality parameter.
func New(width, height, quality int) (*Ctx, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Newf("invalid frame dimensions: %dx%d", width, height).
			Component("codec").
			Category(errors.CategoryValidation).
			Build()
	}
	if quality < 0 || quality > 100 {
		return nil, errors.Newf("invalid codec quality: %d, must be in [0,100]", quality).
			Component("codec").
			Category(errors.CategoryValidation).
			Build()
	}
	return &Ctx{
		width:         width,
		height:        height,
		quality:       quality,
		frameSize:     width * height * 4,
		maxCompressed: width * height * 3 / 2,
	}, nil
}

// FrameSize returns width*height*4, the exact length every raw frame must be.
func (c *Ctx) FrameSize() int {
	return c.frameSize
}

// MaxCompressedSize returns the hard upper bound on a compressed blob's length.
func (c *Ctx) MaxCompressedSize() int {
	return c.maxCompressed
}

// Compress appends a compressed representation of raw to *dst, clearing
// *dst first. raw must be exactly FrameSize bytes of BGRA pixels. The
// result never exceeds MaxCompressedSize; if JPEG encoding would exceed
// it, Compress falls back to a raw store when that still fits the cap,
// and otherwise returns ErrFrameTooLarge so the caller can drop the
// frame rather than violate I1.
func (c *Ctx) Compress(raw []byte, dst *[]byte) error {
	if len(raw) != c.frameSize {
		return errors.Newf("raw frame size mismatch: got %d, want %d", len(raw), c.frameSize).
			Component("codec").
			Category(errors.CategoryCodec).
			Build()
	}

	*dst = (*dst)[:0]

	img := bgraToRGBA(raw, c.width, c.height)
	var buf bytes.Buffer
	buf.WriteByte(formatJPEG)
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return errors.New(err).
			Component("codec").
			Category(errors.CategoryCodec).
			Build()
	}

	if buf.Len() <= c.maxCompressed {
		*dst = append(*dst, buf.Bytes()...)
		return nil
	}

	// JPEG output overran the cap (pathological/high-entropy content).
	// Fall back to a raw store only if that itself respects the bound.
	if c.frameSize+1 <= c.maxCompressed {
		*dst = append(*dst, formatRaw)
		*dst = append(*dst, raw...)
		return nil
	}

	return errors.New(ErrFrameTooLarge).
		Component("codec").
		Category(errors.CategoryCodec).
		Build()
}

// DecompressInto decompresses src into dst, which must be exactly
// FrameSize bytes long. It fails with ErrCorruptedBlob if src is
// malformed or ErrSizeMismatch if dst has the wrong length.
func (c *Ctx) DecompressInto(src []byte, dst []byte) error {
	if len(dst) != c.frameSize {
		return errors.New(ErrSizeMismatch).
			Component("codec").
			Category(errors.CategoryCodec).
			Context("want", c.frameSize).
			Context("got", len(dst)).
			Build()
	}
	if len(src) < 1 {
		return errors.New(ErrCorruptedBlob).
			Component("codec").
			Category(errors.CategoryCodec).
			Build()
	}

	format, body := src[0], src[1:]
	switch format {
	case formatRaw:
		if len(body) != c.frameSize {
			return errors.New(ErrCorruptedBlob).
				Component("codec").
				Category(errors.CategoryCodec).
				Build()
		}
		copy(dst, body)
		return nil
	case formatJPEG:
		if !bytes.HasSuffix(body, jpegEOI) {
			return errors.New(ErrCorruptedBlob).
				Component("codec").
				Category(errors.CategoryCodec).
				Build()
		}
		img, err := jpeg.Decode(bytes.NewReader(body))
		if err != nil {
			return errors.New(ErrCorruptedBlob).
				Component("codec").
				Category(errors.CategoryCodec).
				Context("cause", err.Error()).
				Build()
		}
		bounds := img.Bounds()
		if bounds.Dx() != c.width || bounds.Dy() != c.height {
			return errors.New(ErrSizeMismatch).
				Component("codec").
				Category(errors.CategoryCodec).
				Build()
		}
		rgbaToBGRA(img, dst, c.width, c.height)
		return nil
	default:
		return errors.New(ErrCorruptedBlob).
			Component("codec").
			Category(errors.CategoryCodec).
			Build()
	}
}

// bgraToRGBA converts a tightly-packed BGRA buffer into an *image.RGBA,
// swapping the B and R channels in place during the copy.
func bgraToRGBA(raw []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(raw); i += 4 {
		b, g, r, a := raw[i], raw[i+1], raw[i+2], raw[i+3]
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// rgbaToBGRA writes img's pixels into dst as tightly-packed BGRA bytes.
func rgbaToBGRA(img image.Image, dst []byte, width, height int) {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == width*4 {
		for i := 0; i < len(dst); i += 4 {
			r, g, b, a := rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3]
			dst[i] = b
			dst[i+1] = g
			dst[i+2] = r
			dst[i+3] = a
		}
		return
	}

	bounds := img.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			dst[i] = byte(b >> 8)
			dst[i+1] = byte(g >> 8)
			dst[i+2] = byte(r >> 8)
			dst[i+3] = byte(a >> 8)
			i += 4
		}
	}
}
