package detection

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/dmitrijs2005/tumordetect/internal/logging"
	"github.com/dmitrijs2005/tumordetect/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeDetector struct {
	dets   []Detection
	err    error
	gotDim image.Rectangle
}

func (f *fakeDetector) Detect(_ context.Context, img image.Image) ([]Detection, error) {
	f.gotDim = img.Bounds()
	return f.dets, f.err
}

type fakeArchiver struct {
	owner string
	data  []byte
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, owner string, data []byte) (string, error) {
	f.owner, f.data = owner, data
	if f.err != nil {
		return "", f.err
	}
	return "scans/" + owner + "/1.png", nil
}

func testCfg() *config.Config {
	return &config.Config{FrameWidth: 120, FrameHeight: 60, TargetLabel: "tumour"}
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestService_Analyze(t *testing.T) {
	det := &fakeDetector{dets: []Detection{
		{Box: image.Rect(5, 5, 40, 40), Label: "tumour"},
		{Box: image.Rect(50, 5, 90, 40), Label: "Tumour"},
		{Box: image.Rect(10, 45, 30, 58), Label: "healthy"},
	}}
	svc := NewService(det, nil, testCfg(), nopLogger{})

	res, err := svc.Analyze(context.Background(), "alice", jpegBytes(t, 300, 200))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 120, 60), det.gotDim, "detector sees the resized frame")
	assert.Equal(t, 2, res.TargetCount)
	assert.Equal(t, "tumour", res.Target)
	assert.Len(t, res.Detections, 3)
	assert.Empty(t, res.ArchiveKey)

	orig, err := png.Decode(bytes.NewReader(res.OriginalPNG))
	require.NoError(t, err)
	annotated, err := png.Decode(bytes.NewReader(res.AnnotatedPNG))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 60), orig.Bounds())
	assert.Equal(t, image.Rect(0, 0, 120, 60), annotated.Bounds())

	r, g, b, _ := annotated.At(20, 5).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b}, "box edge is red")
	r0, _, _, _ := orig.At(20, 5).RGBA()
	assert.NotEqual(t, uint32(0xffff), r0, "original frame stays unannotated")
}

func TestService_AcceptsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 10, 10))))

	svc := NewService(&fakeDetector{}, nil, testCfg(), nopLogger{})
	res, err := svc.Analyze(context.Background(), "alice", buf.Bytes())
	require.NoError(t, err)
	assert.Zero(t, res.TargetCount)
}

func TestService_UnsupportedImage(t *testing.T) {
	svc := NewService(&fakeDetector{}, nil, testCfg(), nopLogger{})

	_, err := svc.Analyze(context.Background(), "alice", []byte("definitely not an image"))
	require.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = svc.Analyze(context.Background(), "alice", nil)
	require.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestService_DetectorError(t *testing.T) {
	svc := NewService(&fakeDetector{err: errors.New("cuda out of memory")}, nil, testCfg(), nopLogger{})

	_, err := svc.Analyze(context.Background(), "alice", jpegBytes(t, 20, 20))
	require.ErrorIs(t, err, ErrDetector)
	assert.Contains(t, err.Error(), "cuda out of memory")
}

func TestService_Archive(t *testing.T) {
	arch := &fakeArchiver{}
	svc := NewService(&fakeDetector{}, arch, testCfg(), nopLogger{})

	res, err := svc.Analyze(context.Background(), "alice", jpegBytes(t, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, "scans/alice/1.png", res.ArchiveKey)
	assert.Equal(t, "alice", arch.owner)
	assert.Equal(t, res.AnnotatedPNG, arch.data)
}

func TestService_ArchiveFailureIsNotFatal(t *testing.T) {
	arch := &fakeArchiver{err: errors.New("bucket missing")}
	svc := NewService(&fakeDetector{}, arch, testCfg(), nopLogger{})

	res, err := svc.Analyze(context.Background(), "alice", jpegBytes(t, 20, 20))
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveKey)
}

// pngWithHeader encodes a 1x1 PNG and rewrites its IHDR dimensions, so the
// file stays tiny while declaring a w x h canvas.
func pngWithHeader(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	b := buf.Bytes()

	require.Equal(t, "IHDR", string(b[12:16]))
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestService_RejectsOversizedCanvas(t *testing.T) {
	det := &fakeDetector{}
	svc := NewService(det, nil, testCfg(), nopLogger{})

	raw := pngWithHeader(t, 20000, 20000)
	require.Less(t, len(raw), 1024)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 20000, cfg.Width)

	_, err = svc.Analyze(context.Background(), "alice", raw)
	require.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Contains(t, err.Error(), "20000x20000")
	assert.Equal(t, image.Rectangle{}, det.gotDim, "detector is not reached")
}

func TestService_PixelBudgetFromConfig(t *testing.T) {
	cfg := testCfg()
	cfg.MaxImagePixels = 300 * 200

	svc := NewService(&fakeDetector{}, nil, cfg, nopLogger{})

	_, err := svc.Analyze(context.Background(), "alice", jpegBytes(t, 300, 200))
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "alice", jpegBytes(t, 301, 200))
	require.ErrorIs(t, err, ErrUnsupportedImage)
}
