// Package imagefetch downloads the source image for image-to-image
// generation and derives what the request builder needs from it: raw bytes,
// a data URL, and pixel dimensions.
package imagefetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"golang.org/x/image/draw"
	// Dimension decoding for the formats chat hosts commonly serve.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"paintbot/logging"
)

// MaxDimension caps either side of a fetched image. Larger images are
// downscaled before being handed to the backend; SD backends reject or
// crawl on oversized init images.
const MaxDimension = 2048

// maxDownloadBytes bounds the response body read.
const maxDownloadBytes = 20 << 20 // 20 MB

// Image is the fetched source image.
type Image struct {
	// Buffer holds the (possibly re-encoded) image bytes.
	Buffer []byte

	// DataURL is Buffer encoded for the backend's init_images field.
	DataURL string

	// Width and Height are pixel dimensions after any downscale.
	Width  int
	Height int
}

// NetworkError reports a failed image download or an undecodable payload.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("imagefetch: failed to fetch %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error { return e.Cause }

// LocaleKey returns the message key for the command boundary.
func (e *NetworkError) LocaleKey() string { return "download-error" }

// Fetcher downloads source images. Safe for concurrent use.
type Fetcher struct {
	httpClient *http.Client
	logger     *logging.Logger
}

// FetcherConfig configures the Fetcher.
type FetcherConfig struct {
	// Timeout bounds one download. Default: 30s.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig, logger *logging.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Fetcher{httpClient: httpClient, logger: logger.Named("imagefetch")}
}

// Fetch downloads the image at url and returns it with decoded dimensions.
// Oversized images are downscaled to fit MaxDimension and re-encoded as PNG.
// All failures come back as *NetworkError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: url, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	buffer, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(buffer))
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: fmt.Errorf("undecodable image: %w", err)}
	}

	width, height := cfg.Width, cfg.Height
	if width > MaxDimension || height > MaxDimension {
		buffer, width, height, err = downscale(buffer, width, height)
		if err != nil {
			return nil, &NetworkError{URL: url, Cause: err}
		}
		f.logger.Debug("downscaled oversized init image",
			zap.String("url", url), zap.Int("width", width), zap.Int("height", height))
	}

	return &Image{
		Buffer:  buffer,
		DataURL: EncodeDataURL(buffer),
		Width:   width,
		Height:  height,
	}, nil
}

// EncodeDataURL encodes image bytes as a data URL, sniffing the media type.
func EncodeDataURL(buffer []byte) string {
	mediaType := http.DetectContentType(buffer)
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(buffer)
}

// downscale shrinks the image so the longer side equals MaxDimension,
// preserving aspect ratio, and re-encodes as PNG.
func downscale(buffer []byte, width, height int) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode for downscale: %w", err)
	}

	scale := float64(MaxDimension) / float64(max(width, height))
	dstW := int(float64(width) * scale)
	dstH := int(float64(height) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, 0, 0, fmt.Errorf("re-encode downscaled image: %w", err)
	}
	return out.Bytes(), dstW, dstH, nil
}
