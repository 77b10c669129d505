package pipeline

import (
	"log/slog"

	"webmill/internal/config"
	"webmill/internal/encoderpick"
	"webmill/internal/transcode"
)

// Hooks replaced in tests to run batches without spawning real converters.
var (
	pickEncoder = encoderpick.Pick

	newVideoTranscoder = func(cfg *config.Config, selection encoderpick.Selection, logger *slog.Logger) transcode.Transcoder {
		return transcode.NewVideo(cfg, selection, logger)
	}

	newImageTranscoder = func(cfg *config.Config, logger *slog.Logger) transcode.Transcoder {
		return transcode.NewImage(cfg, logger)
	}
)
