package transcode

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"os"

	"github.com/pixiv/go-libjpeg/jpeg"

	// Decoders for every supported source format. JPEG/PNG/GIF come from
	// the standard library, the rest from their codec packages.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/biessek/golang-ico"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"webmill/internal/config"
	"webmill/internal/fileutil"
	"webmill/internal/layout"
	"webmill/internal/logging"
	"webmill/internal/media"
	"webmill/internal/services"
)

// Image converts image files to progressive JPEG in-process.
type Image struct {
	quality int
	logger  *slog.Logger
}

// NewImage builds an image transcoder from configuration.
func NewImage(cfg *config.Config, logger *slog.Logger) *Image {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Image{
		quality: cfg.Image.Quality,
		logger:  logger.With(logging.String(logging.FieldComponent, "transcode.image")),
	}
}

// Transcode decodes the source image, flattens any transparency onto white,
// and writes a progressive JPEG through a temp file.
func (i *Image) Transcode(ctx context.Context, task media.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, format, err := decodeImageFile(task.Source.Path)
	if err != nil {
		return services.Wrap(services.ErrEncode, "image", "decode", "unreadable or unsupported image", err)
	}
	i.logger.Debug("conversion planned",
		logging.String(logging.FieldFile, task.Source.RelPath),
		logging.String("source_format", format),
		logging.Int("width", src.Bounds().Dx()),
		logging.Int("height", src.Bounds().Dy()),
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	flat := flattenOntoWhite(src)

	if err := layout.EnsureParent(task.OutputPath); err != nil {
		return services.Wrap(services.ErrEncode, "image", "prepare", "create output directory", err)
	}
	err = fileutil.WriteAtomic(task.OutputPath, func(w io.Writer) error {
		return jpeg.Encode(w, flat, &jpeg.EncoderOptions{
			Quality:         i.quality,
			OptimizeCoding:  true,
			ProgressiveMode: true,
		})
	})
	if err != nil {
		return services.Wrap(services.ErrEncode, "image", "encode", "write jpeg", err)
	}
	return nil
}

func decodeImageFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(f)
}

// flattenOntoWhite redraws the source over an opaque white canvas of the
// same size. Transparent regions become white instead of the black that a
// plain alpha drop would produce, and the encoder always receives RGBA.
func flattenOntoWhite(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, bounds.Min, draw.Over)
	return flat
}
