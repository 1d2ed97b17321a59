package main

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/splatview/pkg/viewer"
)

var (
	hudBg     = color.RGBA{0, 0, 0, 255}
	hudFg     = color.RGBA{230, 230, 230, 255}
	hudGreen  = color.RGBA{80, 220, 120, 255}
	hudYellow = color.RGBA{240, 210, 80, 255}
	hudCyan   = color.RGBA{80, 210, 230, 255}
	hudRed    = color.RGBA{240, 90, 90, 255}
	hudDim    = color.RGBA{140, 140, 140, 255}
)

// HUD renders an overlay with scene info, load state and settings.
type HUD struct {
	Visible bool

	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a visible HUD.
func NewHUD() *HUD {
	return &HUD{Visible: true, fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// hudState is what the HUD shows for one frame.
type hudState struct {
	Scene    viewer.SceneDescriptor
	Asset    viewer.AssetDescriptor
	Settings viewer.Settings
	Status   viewer.Status
	Rotate   viewer.RotateMode
	XRay     bool
	Splats   int
}

// Draw paints the HUD onto the top and bottom rows of area.
func (h *HUD) Draw(scr uv.Screen, area uv.Rectangle, st hudState) {
	width := area.Dx()
	top, bottom := area.Min.Y, area.Max.Y-1

	// Load state and errors show even with the HUD hidden.
	switch {
	case st.Status.Err != nil:
		msg := " " + st.Status.Message + " (Enter to retry) "
		drawText(scr, area.Min.X+max((width-len(msg))/2, 0), area.Min.Y+area.Dy()/2, msg, hudRed, hudBg)
	case st.Status.Loading:
		msg := fmt.Sprintf(" Loading %s (%s) ", st.Asset.Filename, humanSize(st.Asset.SizeBytes))
		drawText(scr, area.Min.X+max((width-len(msg))/2, 0), area.Min.Y+area.Dy()/2, msg, hudYellow, hudBg)
	}
	if !h.Visible {
		return
	}

	drawText(scr, area.Min.X, top, fmt.Sprintf(" %.0f FPS ", h.fps), hudGreen, hudBg)

	title := st.Scene.Name
	if title == "" {
		title = st.Scene.ID
	}
	title = " " + title + " "
	drawText(scr, area.Min.X+max((width-len(title))/2, 0), top, title, hudFg, hudBg)

	count := fmt.Sprintf(" %d splats ", st.Splats)
	drawText(scr, area.Min.X+max(width-len(count), 0), top, count, hudCyan, hudBg)

	aa := "[ ]"
	if st.Settings.Antialiased {
		aa = "[✓]"
	}
	modes := fmt.Sprintf(" %s AA  alpha %.0f  rotate %s  %s ",
		aa, st.Settings.AlphaThreshold, st.Rotate, st.Status.State)
	if st.XRay {
		modes += " x-ray "
	}
	drawText(scr, area.Min.X, bottom, modes, hudFg, hudBg)

	hint := " R reset  O rotate  ? hud "
	drawText(scr, area.Min.X+max(width-len(hint), 0), bottom, hint, hudDim, hudBg)
}

// drawText writes s at (x, y), one cell per rune.
func drawText(scr uv.Screen, x, y int, s string, fg, bg color.Color) {
	for _, r := range s {
		scr.SetCell(x, y, &uv.Cell{
			Content: string(r),
			Width:   1,
			Style:   uv.Style{Fg: fg, Bg: bg},
		})
		x++
	}
}

// humanSize formats a byte count in 1024-based units with at most one
// decimal, e.g. "512 Bytes", "1.5 KB".
func humanSize(n int64) string {
	units := []string{"Bytes", "KB", "MB", "GB", "TB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}
