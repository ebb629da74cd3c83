/**
 * Tesseract Engine - Word-level OCR via gosseract
 *
 * One Engine is built per watch run and invoked once per pass (fast line
 * detection over the frame, then a higher-fidelity pass per entry crop).
 * Output is word-level: text, confidence and bounding box per word, with the
 * structural indices the grouper needs.
 */

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	werrors "github.com/OGFlash/ark-log-watchdog/internal/errors"
)

// EngineConfig holds engine-wide Tesseract settings.
type EngineConfig struct {
	// TessdataPrefix points gosseract at a bundled tessdata directory.
	// Empty means the system default.
	TessdataPrefix string
	// Languages defaults to "eng" when empty.
	Languages []string
}

// Engine runs Tesseract passes and returns raw words.
type Engine struct {
	cfg EngineConfig
}

// NewEngine creates a Tesseract engine.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Words runs one OCR pass over img and returns the recognized words.
//
// The confidence gosseract reports is 0-100; a missing confidence maps to -1
// so the grouper can tell "unknown" from "low".
func (e *Engine) Words(img image.Image, pass Pass) ([]Word, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			return nil, werrors.New(werrors.ErrorOCRFailed, "failed to set tessdata prefix", err)
		}
	}
	if len(e.cfg.Languages) > 0 {
		if err := client.SetLanguage(e.cfg.Languages...); err != nil {
			return nil, werrors.New(werrors.ErrorOCRFailed, "failed to set languages", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(pass.PSM)); err != nil {
		return nil, werrors.New(werrors.ErrorOCRFailed,
			fmt.Sprintf("failed to set page segmentation mode %d", pass.PSM), err)
	}
	if pass.Whitelist != "" {
		if err := client.SetWhitelist(pass.Whitelist); err != nil {
			return nil, werrors.New(werrors.ErrorOCRFailed, "failed to set char whitelist", err)
		}
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return nil, werrors.New(werrors.ErrorOCRFailed, "failed to set tesseract variable", err)
	}

	buf, err := encodePNG(img)
	if err != nil {
		return nil, werrors.New(werrors.ErrorEncodeFailed, "failed to encode image for OCR", err)
	}
	if err := client.SetImageFromBytes(buf); err != nil {
		return nil, werrors.New(werrors.ErrorOCRFailed, "failed to set image", err)
	}

	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, werrors.New(werrors.ErrorOCRFailed, "tesseract OCR failed", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		// gosseract reports confidence as a float percentage; negative
		// means Tesseract gave none.
		conf := -1
		if b.Confidence >= 0 {
			conf = int(b.Confidence)
		}
		words = append(words, Word{
			Text: b.Word,
			Conf: conf,
			Box: Rect{
				X: b.Box.Min.X,
				Y: b.Box.Min.Y,
				W: b.Box.Dx(),
				H: b.Box.Dy(),
			},
			Page:    1,
			Block:   b.BlockNum,
			Par:     b.ParNum,
			Line:    b.LineNum,
			WordNum: b.WordNum,
		})
	}
	return words, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
