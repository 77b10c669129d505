package transcode

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"webmill/internal/config"
	"webmill/internal/encoderpick"
	"webmill/internal/ffmpegcmd"
	"webmill/internal/fileutil"
	"webmill/internal/layout"
	"webmill/internal/logging"
	"webmill/internal/media"
	"webmill/internal/media/ffprobe"
	"webmill/internal/services"
)

// Test hook mirroring how probe results are obtained in production.
var inspectSource = ffprobe.Inspect

// Video converts video files to H.264 MP4 through an external ffmpeg.
type Video struct {
	ffmpegBinary  string
	ffprobeBinary string
	selection     encoderpick.Selection
	quality       int
	maxHeight     int
	audioBitrate  string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewVideo builds a video transcoder from configuration and the encoder
// selection made for this run.
func NewVideo(cfg *config.Config, selection encoderpick.Selection, logger *slog.Logger) *Video {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Video{
		ffmpegBinary:  cfg.Pipeline.FFmpegBinary,
		ffprobeBinary: cfg.Pipeline.FFprobeBinary,
		selection:     selection,
		quality:       cfg.Video.Quality,
		maxHeight:     cfg.Video.MaxHeight,
		audioBitrate:  cfg.Video.AudioBitrate,
		timeout:       time.Duration(cfg.Video.TimeoutSeconds) * time.Second,
		logger:        logger.With(logging.String(logging.FieldComponent, "transcode.video")),
	}
}

// Transcode probes the source, decides whether to downscale, and runs ffmpeg
// into a temp file that is renamed over the destination on success.
func (v *Video) Transcode(ctx context.Context, task media.Task) error {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	probe, err := inspectSource(ctx, v.ffprobeBinary, task.Source.Path)
	if err != nil {
		return services.Wrap(services.ErrEncode, "video", "probe", "ffprobe failed", err)
	}
	if probe.VideoStreamCount() == 0 {
		return services.Wrap(services.ErrEncode, "video", "probe", "no video stream in source", nil)
	}

	height := probe.VideoHeight()
	scaleHeight := 0
	if height > v.maxHeight {
		scaleHeight = v.maxHeight
	}
	v.logger.Debug("conversion planned",
		logging.String(logging.FieldFile, task.Source.RelPath),
		logging.Int("source_height", height),
		logging.Int("scale_height", scaleHeight),
		logging.Float64("duration_seconds", probe.DurationSeconds()),
		logging.Int64("source_bitrate", probe.BitRate()),
	)

	if err := layout.EnsureParent(task.OutputPath); err != nil {
		return services.Wrap(services.ErrEncode, "video", "prepare", "create output directory", err)
	}
	tmp, err := fileutil.TempSibling(task.OutputPath)
	if err != nil {
		return services.Wrap(services.ErrEncode, "video", "prepare", "create temp output", err)
	}
	defer os.Remove(tmp)

	args := ffmpegcmd.BuildVideoArgs(ffmpegcmd.VideoSpec{
		InputPath:    task.Source.Path,
		OutputPath:   tmp,
		Encoder:      v.selection.Encoder,
		QualityArgs:  encoderpick.QualityArgs(v.selection.Encoder, v.quality),
		ScaleHeight:  scaleHeight,
		AudioBitrate: v.audioBitrate,
	})
	if err := ffmpegcmd.Run(ctx, v.ffmpegBinary, args); err != nil {
		marker := services.ErrEncode
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "video", "encode", "ffmpeg failed", err)
	}

	if err := fileutil.CommitTemp(tmp, task.OutputPath); err != nil {
		return services.Wrap(services.ErrEncode, "video", "commit", "move output into place", err)
	}
	return nil
}
