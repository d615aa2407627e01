package extractor

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestFitToDimensionCap_SmallImageUnchanged(t *testing.T) {
	in := encodePNG(t, 640, 480)
	out, err := fitToDimensionCap(in)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatalf("image under the cap must pass through unchanged")
	}
}

func TestFitToDimensionCap_OversizedImageDownscaled(t *testing.T) {
	in := encodePNG(t, maxImageDimension+500, 100)
	out, err := fitToDimensionCap(in)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		t.Fatalf("result still over cap: %dx%d", cfg.Width, cfg.Height)
	}
	// Proportional: the short edge shrinks by the same factor.
	if cfg.Width != maxImageDimension {
		t.Fatalf("long edge should land on the cap, got %d", cfg.Width)
	}
}

func TestFitToDimensionCap_GarbageRejected(t *testing.T) {
	if _, err := fitToDimensionCap([]byte("not a png")); err == nil {
		t.Fatalf("expected decode error")
	}
}
