// Package detection runs an object detector over uploaded images, draws the
// results and counts detections of a target class.
package detection

import (
	"context"
	"errors"
	"image"
	"strings"
)

var (
	// ErrUnsupportedImage is returned when an upload cannot be decoded.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrDetector wraps failures of the underlying model.
	ErrDetector = errors.New("detector failure")
)

// Detection is one object found by the model. Box is in the coordinates of
// the image passed to the detector.
type Detection struct {
	Box        image.Rectangle
	ClassID    int
	Label      string
	Confidence float64
}

// Detector is the model capability: image in, detections out.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// CountLabel returns how many detections carry target as label, ignoring case.
func CountLabel(dets []Detection, target string) int {
	n := 0
	for _, d := range dets {
		if strings.EqualFold(d.Label, target) {
			n++
		}
	}
	return n
}
