package surface

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ScaleMode decides how a source frame is laid into the view.
type ScaleMode int

const (
	// ScaleNone draws the source at its natural size from the top left corner.
	ScaleNone ScaleMode = iota
	// ScaleFitWithin keeps the aspect ratio and fits inside the view, pinned to the top left.
	ScaleFitWithin
	// ScaleFillStretch fills the view exactly, ignoring the aspect ratio.
	ScaleFillStretch
	// ScaleFitCenter keeps the aspect ratio and fits inside the view, centered.
	ScaleFitCenter
	// ScaleCenterCrop keeps the aspect ratio and covers the view, centered and cropped.
	ScaleCenterCrop
)

var ErrUnknownScaleMode = errors.New("unknown scale mode")

var scaleModeNames = map[ScaleMode]string{
	ScaleNone:        "none",
	ScaleFitWithin:   "fit-within",
	ScaleFillStretch: "fill-stretch",
	ScaleFitCenter:   "fit-center",
	ScaleCenterCrop:  "center-crop",
}

func (m ScaleMode) String() string {
	if name, ok := scaleModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ScaleMode(%d)", int(m))
}

// ScaleModeNames lists the accepted configuration names.
func ScaleModeNames() []string {
	return []string{"none", "fit-within", "fill-stretch", "fit-center", "center-crop"}
}

// ParseScaleMode accepts a configuration name, case insensitively.  An unknown name yields ErrUnknownScaleMode with
// the closest valid name suggested when there is one.
func ParseScaleMode(s string) (ScaleMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for mode, n := range scaleModeNames {
		if n == name {
			return mode, nil
		}
	}

	if suggestion := closestScaleMode(name); suggestion != "" {
		return ScaleNone, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownScaleMode, s, suggestion)
	}
	return ScaleNone, fmt.Errorf("%w %q, expected one of %s", ErrUnknownScaleMode, s,
		strings.Join(ScaleModeNames(), ", "))
}

// closestScaleMode prefers names that contain the input as a subsequence ("crop"), then falls back to small typos
// ("fit-centre").
func closestScaleMode(name string) string {
	if name == "" {
		return ""
	}
	if ranks := fuzzy.RankFindNormalizedFold(name, ScaleModeNames()); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", 4
	for _, candidate := range ScaleModeNames() {
		if d := fuzzy.LevenshteinDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// Matrix is a 2D affine transform without rotation or skew, applied to a frame that is by default stretched over the
// whole view.
type Matrix struct {
	ScaleX, ScaleY         float64
	TranslateX, TranslateY float64
}

// Identity leaves the frame stretched over the view.
var Identity = Matrix{ScaleX: 1, ScaleY: 1}

// Transform computes the view transform for a source of srcW x srcH drawn in a view of viewW x viewH.  ok is false when
// any size is not positive, in which case the current transform should be left alone.
func Transform(viewW, viewH, srcW, srcH int, mode ScaleMode) (m Matrix, ok bool) {
	if viewW <= 0 || viewH <= 0 || srcW <= 0 || srcH <= 0 {
		return Identity, false
	}

	vw, vh := float64(viewW), float64(viewH)
	sw, sh := float64(srcW), float64(srcH)

	switch mode {
	case ScaleFillStretch:
		return Identity, true
	case ScaleNone:
		return Matrix{ScaleX: sw / vw, ScaleY: sh / vh}, true
	}

	fit := min(vw/sw, vh/sh)
	if mode == ScaleCenterCrop {
		fit = max(vw/sw, vh/sh)
	}
	cw, ch := sw*fit, sh*fit
	m = Matrix{ScaleX: cw / vw, ScaleY: ch / vh}

	switch mode {
	case ScaleFitCenter, ScaleCenterCrop:
		m.TranslateX = (vw - cw) / 2
		m.TranslateY = (vh - ch) / 2
	case ScaleFitWithin:
		// pinned top left
	default:
		return Identity, false
	}
	return m, true
}
