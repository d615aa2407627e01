package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// maxImageDimension is the pixel cap the extraction service imposes on
// either axis of an input image.
const maxImageDimension = 8000

// fitToDimensionCap returns the PNG unchanged when it fits, otherwise a
// proportionally downscaled re-encode.
func fitToDimensionCap(data []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if format != "png" {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if cfg.Width <= maxImageDimension && cfg.Height <= maxImageDimension {
		return data, nil
	}

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	scale := float64(maxImageDimension) / float64(cfg.Width)
	if s := float64(maxImageDimension) / float64(cfg.Height); s < scale {
		scale = s
	}
	w := int(float64(cfg.Width) * scale)
	h := int(float64(cfg.Height) * scale)
	log.Debug().Int("from_w", cfg.Width).Int("from_h", cfg.Height).Int("to_w", w).Int("to_h", h).Msg("downscaling screenshot")

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
