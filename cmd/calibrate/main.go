/**
 * ROI Calibration - Headless helper
 *
 * Lists the active display bounds so an operator can work out the capture
 * rectangle, and writes a flag-specified ROI back into config.yaml. The
 * drag-to-select editor lives in the GUI, not here.
 */

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kbinani/screenshot"

	"github.com/OGFlash/ark-log-watchdog/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	x := flag.Int("x", -1, "ROI x origin (virtual-screen coordinates)")
	y := flag.Int("y", -1, "ROI y origin")
	w := flag.Int("w", 0, "ROI width")
	h := flag.Int("h", 0, "ROI height")
	flag.Parse()

	n := screenshot.NumActiveDisplays()
	if n < 1 {
		fmt.Fprintln(os.Stderr, "no active displays found")
		os.Exit(1)
	}
	fmt.Println("active displays:")
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		fmt.Printf("  display %d: x=%d y=%d w=%d h=%d\n", i, b.Min.X, b.Min.Y, b.Dx(), b.Dy())
	}

	if *w <= 0 || *h <= 0 {
		fmt.Println("\npass -x -y -w -h to save an ROI")
		return
	}
	if *x < 0 || *y < 0 {
		fmt.Fprintln(os.Stderr, "ROI origin must not be negative")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cfg.ROI = config.ROI{X: *x, Y: *y, W: *w, H: *h}
	if err := cfg.Save(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	fmt.Printf("saved ROI to %s: x=%d y=%d w=%d h=%d\n", *configPath, *x, *y, *w, *h)
}
