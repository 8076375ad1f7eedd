package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"time"
)

// HTTPDetector calls an external inference service. The frame is posted as
// a PNG in the multipart field "file"; the service answers with
//
//	{"detections": [{"x1":..,"y1":..,"x2":..,"y2":..,"confidence":..,"class_id":..}]}
//
// Class ids are turned into labels with the configured ClassList.
type HTTPDetector struct {
	inferenceURL string
	client       *http.Client
	classes      ClassList
}

func NewHTTPDetector(inferenceURL string, timeout time.Duration, classes ClassList) *HTTPDetector {
	return &HTTPDetector{
		inferenceURL: inferenceURL,
		client:       &http.Client{Timeout: timeout},
		classes:      classes,
	}
}

type inferenceBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	ClassID    float64 `json:"class_id"`
}

type inferenceResponse struct {
	Detections []inferenceBox `json:"detections"`
}

// Detect implements Detector.
func (d *HTTPDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	dets := make([]Detection, 0, len(result.Detections))
	for _, b := range result.Detections {
		id := int(b.ClassID)
		dets = append(dets, Detection{
			Box:        image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2)),
			ClassID:    id,
			Label:      d.classes.Label(id),
			Confidence: b.Confidence,
		})
	}

	return dets, nil
}

// CheckHealth probes the service's /health endpoint, a sibling of the
// inference path (http://host/predict -> http://host/health).
func (d *HTTPDetector) CheckHealth(ctx context.Context) error {
	healthURL, err := siblingURL(d.inferenceURL, "health")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

func siblingURL(raw, name string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse inference url: %w", err)
	}
	u.Path = path.Join(path.Dir(u.Path), name)
	u.RawQuery = ""
	return u.String(), nil
}
