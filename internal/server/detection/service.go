package detection

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/dmitrijs2005/tumordetect/internal/logging"
	"github.com/dmitrijs2005/tumordetect/internal/server/config"
)

// Archiver stores annotated frames. It is optional.
type Archiver interface {
	Archive(ctx context.Context, owner string, png []byte) (string, error)
}

// Result is the outcome of one analysis.
type Result struct {
	Detections   []Detection
	Target       string
	TargetCount  int
	OriginalPNG  []byte
	AnnotatedPNG []byte
	ArchiveKey   string
}

// Service decodes an upload, resizes it to the configured frame, runs the
// detector, draws the detections and counts the target label.
type Service struct {
	detector  Detector
	archiver  Archiver
	width     int
	height    int
	target    string
	maxPixels int64
	logger    logging.Logger
}

const defaultMaxPixels = 8192 * 8192

// NewService wires a detector and an optional archiver (nil disables it).
func NewService(d Detector, a Archiver, cfg *config.Config, l logging.Logger) *Service {
	maxPixels := cfg.MaxImagePixels
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	return &Service{
		detector:  d,
		archiver:  a,
		width:     cfg.FrameWidth,
		height:    cfg.FrameHeight,
		target:    cfg.TargetLabel,
		maxPixels: maxPixels,
		logger:    l.With("module", "detection"),
	}
}

// Target returns the label being counted.
func (s *Service) Target() string { return s.target }

// Analyze processes one uploaded image on behalf of owner.
func (s *Service) Analyze(ctx context.Context, owner string, raw []byte) (*Result, error) {
	// The header is checked first: a small compressed upload can declare a
	// canvas far larger than the upload limit.
	hdr, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 || int64(hdr.Width)*int64(hdr.Height) > s.maxPixels {
		s.logger.Warn(ctx, "image rejected", "owner", owner, "width", hdr.Width, "height", hdr.Height)
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, hdr.Width, hdr.Height, s.maxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	frame := Resize(src, s.width, s.height)

	original, err := encodePNG(frame)
	if err != nil {
		return nil, err
	}

	dets, err := s.detector.Detect(ctx, frame)
	if err != nil {
		s.logger.Error(ctx, "detector failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDetector, err)
	}

	annotated := Clone(frame)
	Annotate(annotated, dets)

	out, err := encodePNG(annotated)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Detections:   dets,
		Target:       s.target,
		TargetCount:  CountLabel(dets, s.target),
		OriginalPNG:  original,
		AnnotatedPNG: out,
	}

	s.logger.Info(ctx, "image analyzed",
		"owner", owner, "format", format, "detections", len(dets), "target_count", res.TargetCount)

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, owner, out)
		if err != nil {
			s.logger.Warn(ctx, "archive failed", "owner", owner, "error", err)
		} else {
			res.ArchiveKey = key
		}
	}

	return res, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
