/**
 * Watch Loop - The capture / segment / dedup / classify / notify cycle
 *
 * One sequential worker: capture the ROI, OCR it for line detection, slice
 * the lines into entries, then per candidate entry re-OCR its crop, gate on
 * the dedup registry and the trigger list, and post matches to the notifier.
 * Frames are never queued or processed concurrently - slow OCR just delays
 * the next capture. Cancellation is observed only at the sleeping/capturing
 * boundary.
 */

package watch

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/OGFlash/ark-log-watchdog/internal/capture"
	"github.com/OGFlash/ark-log-watchdog/internal/config"
	werrors "github.com/OGFlash/ark-log-watchdog/internal/errors"
	"github.com/OGFlash/ark-log-watchdog/internal/logging"
	"github.com/OGFlash/ark-log-watchdog/internal/ocr"
	"github.com/OGFlash/ark-log-watchdog/internal/storage"
)

// Capturer grabs a region of the virtual screen.
type Capturer interface {
	Capture(r ocr.Rect) (*image.RGBA, error)
}

// Recognizer runs one OCR pass and returns raw words.
type Recognizer interface {
	Words(img image.Image, pass ocr.Pass) ([]ocr.Word, error)
}

// Notifier delivers one formatted notification, optionally with a PNG
// attachment.
type Notifier interface {
	Send(ctx context.Context, content string, imageBytes []byte, filename string) error
}

// HitRecorder persists posted hits. Optional.
type HitRecorder interface {
	Record(ctx context.Context, hit *storage.Hit) error
}

// Watcher owns all per-cycle state exclusively; nothing mutable is shared
// across iterations except the append-only registry and the immutable
// trigger list.
type Watcher struct {
	cfg      *config.Config
	roi      ocr.Rect
	screen   Capturer
	engine   Recognizer
	notifier Notifier
	history  HitRecorder

	seg      *Segmenter
	reg      *Registry
	legacy   *TTLSet
	resolver *Resolver

	sendOnlyNewest bool
	tightenColumns bool

	debugFrames bool
	frameID     int
	log         zerolog.Logger
}

// Deps are the external collaborators of one watch run.
type Deps struct {
	Screen   Capturer
	Engine   Recognizer
	Notifier Notifier
	// History may be nil.
	History HitRecorder
}

// New builds a watcher. An unset or undersized ROI is fatal here rather than
// on the first frame.
func New(cfg *config.Config, deps Deps) (*Watcher, error) {
	if cfg.ROI.W < 5 || cfg.ROI.H < 5 {
		return nil, werrors.New(werrors.ErrorROIInvalid,
			fmt.Sprintf("ROI not set or too small (%dx%d)", cfg.ROI.W, cfg.ROI.H), nil)
	}
	log := logging.Component("watch")
	header := CompileHeaderPattern(cfg.EntryHeaderRegex)
	w := &Watcher{
		cfg:      cfg,
		roi:      ocr.Rect{X: cfg.ROI.X, Y: cfg.ROI.Y, W: cfg.ROI.W, H: cfg.ROI.H},
		screen:   deps.Screen,
		engine:   deps.Engine,
		notifier: deps.Notifier,
		history:  deps.History,
		seg:      NewSegmenter(header, cfg.EntryBboxPadLR, cfg.EntryBboxPadV, cfg.EntryMaxHeightPx),
		reg:      NewRegistry(),
		legacy:   NewTTLSet(time.Duration(cfg.LegacyTTLSeconds)*time.Second, cfg.LegacyMaxEntries),
		resolver: NewResolver(cfg.Triggers, cfg.LoadKeywords(), cfg.Regex, log),

		// both default on for configs built without config.Load
		sendOnlyNewest: cfg.SendOnlyNewest == nil || *cfg.SendOnlyNewest,
		tightenColumns: cfg.TightenColumns == nil || *cfg.TightenColumns,

		debugFrames: os.Getenv("ARKWD_DEBUG_FRAMES") == "true",
		log:         log,
	}
	return w, nil
}

// Run loops until ctx is cancelled. Each cycle takes at least the configured
// interval; a slow cycle is never caught up or skipped ahead of.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info().
		Int("x", w.roi.X).Int("y", w.roi.Y).Int("w", w.roi.W).Int("h", w.roi.H).
		Int("interval_ms", w.cfg.CaptureIntervalMs).
		Int("triggers", len(w.cfg.Triggers)).
		Msg("watching ROI")

	interval := time.Duration(w.cfg.CaptureIntervalMs) * time.Millisecond
	for {
		start := time.Now()
		w.processFrame(ctx)
		w.frameID++

		delay := interval - time.Since(start)
		if delay < 0 {
			delay = 0
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.log.Info().Int("frames", w.frameID).Int("posted", w.reg.Len()).Msg("watch loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// processFrame runs one full capture cycle. Every failure inside a cycle is
// recoverable: log and move on to the next frame.
func (w *Watcher) processFrame(ctx context.Context) {
	frame, err := w.screen.Capture(w.roi)
	if err != nil {
		w.log.Warn().Int("frame", w.frameID).Err(err).Msg("capture failed")
		return
	}

	if w.debugFrames {
		if png, err := capture.EncodePNG(frame); err == nil {
			if _, err := storage.SaveFrame(w.cfg.CaptureDir, w.frameID, png); err != nil {
				w.log.Debug().Err(err).Msg("frame dump failed")
			}
		}
	}

	scaled := capture.Scale(frame, w.cfg.OCRScale)
	words, err := w.engine.Words(scaled, ocr.Pass{PSM: w.cfg.PSMLines, Whitelist: w.cfg.TesseractWhitelist})
	if err != nil {
		w.log.Warn().Int("frame", w.frameID).Err(err).Msg("line-detection OCR failed")
		return
	}
	lines := ocr.GroupWords(words, w.cfg.MinWordConf)
	w.log.Debug().Int("frame", w.frameID).Int("ocr_lines", len(lines)).
		Strs("sample", lineSample(lines, 5)).Msg("frame scanned")

	b := scaled.Bounds()
	entries := w.seg.Segment(lines, b.Dx(), b.Dy())
	w.log.Debug().Int("frame", w.frameID).Int("headers_found", len(entries)).
		Strs("top", headerSample(entries, 3)).Msg("frame segmented")

	if w.sendOnlyNewest && len(entries) > 1 {
		entries = entries[:1]
	}
	for _, ent := range entries {
		w.processEntry(ctx, frame, scaled, ent)
	}
}

func (w *Watcher) processEntry(ctx context.Context, frame image.Image, scaled image.Image, ent Entry) {
	box := ent.Box
	if w.tightenColumns {
		box = capture.TightenColumns(scaled, box, w.cfg.EntryBboxPadLR)
	}
	crop := capture.Crop(scaled, box)

	words, err := w.engine.Words(crop, ocr.Pass{PSM: w.cfg.ReocrPSM, Whitelist: w.cfg.TesseractWhitelist})
	if err != nil {
		w.log.Warn().Err(err).Msg("entry re-OCR failed")
		return
	}
	text, conf := ocr.FullText(ocr.GroupWords(words, w.cfg.MinWordConf))
	if text == "" {
		return
	}

	if !w.seg.IsHeader(text) {
		// Cropping can shave the header off the second pass; reconstitute it
		// from the first-pass line when that line plausibly is one.
		hdr := strings.TrimSpace(ent.HeaderText)
		if hdr != "" && strings.HasPrefix(strings.ToLower(hdr), "day") {
			text = hdr + " " + text
		} else {
			return
		}
	}

	key := CanonicalKey(text, ent.HeaderText)
	if w.reg.Seen(key) {
		w.log.Debug().Str("key", key).Msg("skip duplicate header key")
		return
	}

	trig, matched := w.resolver.Resolve(text)
	if trig == nil {
		// Not marked: a later cleaner pass of the same entry may still match.
		w.log.Debug().Str("key", key).Msg("no trigger matched")
		return
	}
	if trig.Legacy() {
		ek := EventKey(text)
		if w.legacy.Contains(ek) {
			w.log.Debug().Str("event_key", ek).Msg("skip duplicate legacy event")
			return
		}
		w.legacy.Add(ek)
	}
	w.reg.Mark(key)

	content := buildContent(trig, matched, text, conf)

	// Attachment encoding is best-effort; failure degrades to text-only.
	png, err := capture.EncodePNG(frame)
	if err != nil {
		w.log.Warn().Err(err).Msg("capture encode failed, sending text-only")
		png = nil
	}

	if err := w.notifier.Send(ctx, content, png, "ark_log_hit.png"); err != nil {
		w.log.Error().Str("key", key).Err(err).Msg("notify failed")
	} else {
		w.log.Info().Str("key", key).Str("trigger", trig.Name).Msg("posted to Discord")
	}

	if png != nil {
		if _, err := storage.SaveCapture(w.cfg.CaptureDir, png); err != nil {
			w.log.Debug().Err(err).Msg("local capture save failed")
		}
	}
	if w.history != nil {
		hit := &storage.Hit{
			DedupKey:    key,
			TriggerName: trig.Name,
			Matched:     matched,
			Content:     content,
			Confidence:  conf,
		}
		if err := w.history.Record(ctx, hit); err != nil {
			w.log.Warn().Err(err).Msg("hit history record failed")
		}
	}
}

func buildContent(t *Trigger, matched, text string, conf float64) string {
	var parts []string
	if m := Mention(t); m != "" {
		parts = append(parts, m)
	}
	if p := strings.TrimSpace(t.Prefix); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, "**ARK Watchdog match**")
	reason := matched
	if reason == "" {
		reason = "trigger"
	}
	parts = append(parts, fmt.Sprintf("- [%d%%] %s (match: %s)", int(conf), text, reason))
	if s := strings.TrimSpace(t.Suffix); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

func lineSample(lines []ocr.Line, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < len(lines) && i < n; i++ {
		out = append(out, lines[i].Text)
	}
	return out
}

func headerSample(entries []Entry, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < len(entries) && i < n; i++ {
		out = append(out, entries[i].HeaderText)
	}
	return out
}
