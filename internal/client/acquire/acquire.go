// Package acquire turns an image on local disk into an uploaded image
// handle. Images are decoded, scaled down so their longest edge fits the
// configured limit and re-encoded as JPEG before they leave the device.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"strings"

	// registered decoders
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/dmitrijs2005/travelbuddy/internal/netx"
	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
	"golang.org/x/image/draw"
)

const ContentType = "image/jpeg"

var (
	ErrCancelled         = errors.New("no image selected")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// upload is a test seam for netx.UploadToPresignedURL.
var upload = netx.UploadToPresignedURL

type uploader interface {
	RequestImageUpload(ctx context.Context, kind string) (string, string, error)
	ConfirmImageUpload(ctx context.Context, handle string) (*rpc.ConfirmImageUploadResponse, error)
}

type Acquirer struct {
	api     uploader
	maxEdge int
	quality int
}

func NewAcquirer(api uploader, maxEdge, quality int) *Acquirer {
	return &Acquirer{api: api, maxEdge: maxEdge, quality: quality}
}

// Acquire prepares the image at path, uploads it for the given kind and
// confirms the upload. An empty path means the user picked nothing and
// yields ErrCancelled without contacting the server.
func (a *Acquirer) Acquire(ctx context.Context, kind, path string) (*rpc.ConfirmImageUploadResponse, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrCancelled
	}

	body, err := Load(path, a.maxEdge, a.quality)
	if err != nil {
		return nil, err
	}

	handle, url, err := a.api.RequestImageUpload(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("error requesting upload: %w", err)
	}

	if err := upload(ctx, url, body, ContentType); err != nil {
		return nil, fmt.Errorf("error uploading image: %w", err)
	}

	resp, err := a.api.ConfirmImageUpload(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("error confirming upload: %w", err)
	}
	return resp, nil
}

// Load reads and prepares the image file at path.
func Load(path string, maxEdge, quality int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()

	return Prepare(f, maxEdge, quality)
}

// Prepare decodes any registered format and returns JPEG bytes.
func Prepare(r io.Reader, maxEdge, quality int) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	img = Downscale(img, maxEdge)

	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("error encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

// Downscale keeps the aspect ratio and shrinks img until its longest edge
// is at most maxEdge. Smaller images and a non-positive maxEdge leave img
// untouched.
func Downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}

	nw, nh := maxEdge, maxEdge
	if w >= h {
		nh = max(1, h*maxEdge/w)
	} else {
		nw = max(1, w*maxEdge/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
