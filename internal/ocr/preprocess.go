package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// Preprocessor prepares images for tesseract: HEIC/HEIF is decoded and every image
// is converted to a grayscale, contrast-boosted PNG. Results are cached by content hash.
type Preprocessor struct {
	cacheDir string
	logger   *slog.Logger
}

func NewPreprocessor(cacheDir string, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{cacheDir: cacheDir, logger: logger}
}

// Prepare returns the path to a preprocessed PNG. cleanup is nil when the output
// lives in the cache directory.
func (p *Preprocessor) Prepare(ctx context.Context, path string) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	sum, err := fileSHA256(path)
	if err != nil {
		return "", nil, fmt.Errorf("hash image: %w", err)
	}

	var out string
	var cleanup func()
	if p.cacheDir != "" {
		out = filepath.Join(p.cacheDir, sum+".png")
		if st, err := os.Stat(out); err == nil && !st.IsDir() {
			p.logger.Debug("ocr.preprocess.cache_hit", "cache", out)
			return out, nil, nil
		}
		if err := os.MkdirAll(p.cacheDir, 0o755); err != nil {
			return "", nil, err
		}
	} else {
		tmpDir, err := os.MkdirTemp("", "it-img-*")
		if err != nil {
			return "", nil, err
		}
		cleanup = func() { _ = os.RemoveAll(tmpDir) }
		out = filepath.Join(tmpDir, "page.png")
	}

	src, err := decodeImage(path)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return "", nil, err
	}

	img := enhanceForOCR(src)
	if err := imaging.Save(img, out); err != nil {
		if cleanup != nil {
			cleanup()
		}
		return "", nil, fmt.Errorf("save preprocessed image: %w", err)
	}
	p.logger.Debug("ocr.preprocess.ok", "path", path, "out", out,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return out, cleanup, nil
}

func decodeImage(path string) (image.Image, error) {
	if constants.IsHEICExt(constants.NormalizeExt(filepath.Ext(path))) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, err := heic.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func enhanceForOCR(src image.Image) image.Image {
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)
	// tesseract does poorly on tiny captures
	if b := img.Bounds(); b.Dx() < 1000 {
		img = imaging.Resize(img, 1000, 0, imaging.Lanczos)
	}
	return img
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
