/**
 * Local capture artifacts. Convenience copies of the captured region, one
 * per posted hit - failures are the caller's to ignore.
 */

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	werrors "github.com/OGFlash/ark-log-watchdog/internal/errors"
)

// SaveCapture writes pngBytes under dir as hit-<timestamp>.png and returns
// the written path.
func SaveCapture(dir string, pngBytes []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", werrors.New(werrors.ErrorStorageFailed, "failed to create capture dir", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("hit-%s.png", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, pngBytes, 0o644); err != nil {
		return "", werrors.New(werrors.ErrorStorageFailed, "failed to write capture", err)
	}
	return path, nil
}

// SaveFrame writes a debug copy of a raw captured frame, used when frame
// dumping is switched on via ARKWD_DEBUG_FRAMES.
func SaveFrame(dir string, frameID int, pngBytes []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", werrors.New(werrors.ErrorStorageFailed, "failed to create capture dir", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%06d.png", frameID))
	if err := os.WriteFile(path, pngBytes, 0o644); err != nil {
		return "", werrors.New(werrors.ErrorStorageFailed, "failed to write frame", err)
	}
	return path, nil
}
