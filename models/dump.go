package models

import (
	"context"
	stderrors "errors"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Cytomine-ULiege/cytomine-go-client/transfer"
)

// DumpOption configures an image dump.
type DumpOption func(*dumpConfig)

type dumpConfig struct {
	override bool
	mask     bool
	alpha    bool
	bits     string
	complete bool

	zoom         *int64
	maxSize      *int64
	increaseArea *float64
	contrast     *float64
	gamma        *float64
	colormap     *int64
	inverse      *bool
}

func newDumpConfig(opts []DumpOption) dumpConfig {
	cfg := dumpConfig{override: true, bits: "8", complete: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithOverride controls whether an existing destination file is replaced.
// Dumps override by default; with override disabled an existing file counts
// as already transferred and no download is issued for it.
func WithOverride(override bool) DumpOption {
	return func(c *dumpConfig) { c.override = override }
}

// WithMask requests a binary mask of the annotation instead of the crop.
func WithMask() DumpOption {
	return func(c *dumpConfig) { c.mask = true }
}

// WithAlpha requests a transparent background outside the annotation.
// Combined with WithMask the returned image is an alpha mask.
func WithAlpha() DumpOption {
	return func(c *dumpConfig) { c.alpha = true }
}

// WithBits sets the bit depth per channel of the returned image.
func WithBits(bits int) DumpOption {
	return func(c *dumpConfig) { c.bits = strconv.Itoa(bits) }
}

// WithOriginalBits keeps the bit depth of the original image.
func WithOriginalBits() DumpOption {
	return func(c *dumpConfig) { c.bits = "max" }
}

// WithZoom sets the zoom level of the returned image.
func WithZoom(zoom int64) DumpOption {
	return func(c *dumpConfig) { c.zoom = &zoom }
}

// WithMaxSize bounds the width and height of the returned image.
func WithMaxSize(pixels int64) DumpOption {
	return func(c *dumpConfig) { c.maxSize = &pixels }
}

// WithIncreaseArea grows the cropped region around the annotation by the
// given factor.
func WithIncreaseArea(factor float64) DumpOption {
	return func(c *dumpConfig) { c.increaseArea = &factor }
}

// WithContrast applies a contrast adjustment to the returned image.
func WithContrast(contrast float64) DumpOption {
	return func(c *dumpConfig) { c.contrast = &contrast }
}

// WithGamma applies a gamma adjustment to the returned image.
func WithGamma(gamma float64) DumpOption {
	return func(c *dumpConfig) { c.gamma = &gamma }
}

// WithColormap applies the colormap with the given identifier.
func WithColormap(id int64) DumpOption {
	return func(c *dumpConfig) { c.colormap = &id }
}

// WithInverse inverses the color mapping of the returned image.
func WithInverse(inverse bool) DumpOption {
	return func(c *dumpConfig) { c.inverse = &inverse }
}

// WithComplete controls whether masks use the full geometry rather than a
// simplified one. Complete geometry is the default.
func WithComplete(complete bool) DumpOption {
	return func(c *dumpConfig) { c.complete = complete }
}

func (c *dumpConfig) queryValues() url.Values {
	q := url.Values{}
	setIntParam(q, "zoom", c.zoom)
	setIntParam(q, "maxSize", c.maxSize)
	setFloatParam(q, "increaseArea", c.increaseArea)
	setFloatParam(q, "contrast", c.contrast)
	setFloatParam(q, "gamma", c.gamma)
	setIntParam(q, "colormap", c.colormap)
	setBoolParam(q, "inverse", c.inverse)
	q.Set("bits", c.bits)
	q.Set("complete", strconv.FormatBool(c.complete))
	return q
}

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"png":  {},
	"tif":  {},
	"tiff": {},
}

// dumpImage resolves the destination pattern against the model attributes
// and downloads one file per destination through urlFor. Destinations whose
// extension is not a supported image format fall back to jpg, and the
// extension urlFor settles on is applied to the destination as well. When
// override is disabled, existing destinations are kept without issuing a
// download. The produced paths are recorded on the model under "filenames"
// and "filename". An error is returned only when no destination could be
// produced at all.
func dumpImage(ctx context.Context, tr Transferer, m *Model, destPattern string, override bool, query url.Values, urlFor func(ext string) (string, string)) ([]string, error) {
	destinations, err := transfer.ResolvePattern(destPattern, m.attrs.Snapshot())
	if err != nil {
		return nil, err
	}

	var files []string
	var failures []error
	for _, dest := range destinations {
		ext := strings.TrimPrefix(filepath.Ext(dest), ".")
		if _, ok := imageExtensions[ext]; !ok {
			ext = "jpg"
		}
		fileURL, ext := urlFor(ext)
		dest = strings.TrimSuffix(dest, filepath.Ext(dest)) + "." + ext
		if !override {
			if exists, err := tr.FileExists(dest); err == nil && exists {
				files = append(files, dest)
				continue
			}
		}
		if err := tr.DownloadFile(ctx, fileURL, dest, override, query); err != nil {
			failures = append(failures, err)
			continue
		}
		files = append(files, dest)
	}

	if len(files) == 0 && len(failures) > 0 {
		return nil, stderrors.Join(failures...)
	}
	if len(files) > 0 {
		m.attrs.Set("filenames", files)
		m.attrs.Set("filename", files[0])
	}
	return files, nil
}

// Filenames returns the destination paths recorded by the last dump.
func (m *Model) Filenames() []string {
	v, ok := m.attrs.Get("filenames")
	if !ok {
		return nil
	}
	switch f := v.(type) {
	case []string:
		return f
	case []any:
		out := make([]string, 0, len(f))
		for _, e := range f {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Filename returns the first destination path recorded by the last dump.
func (m *Model) Filename() string {
	s, _ := m.attrs.String("filename")
	return s
}
