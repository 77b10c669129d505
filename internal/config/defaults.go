package config

import "runtime"

const (
	defaultSourceDir        = "_original"
	defaultOutputDir        = "_converted"
	defaultLogDir           = "~/.local/share/webmill/logs"
	defaultStateDir         = "~/.local/share/webmill"
	defaultEncoder          = "auto"
	defaultVideoQuality     = 21
	defaultMaxHeight        = 720
	defaultAudioBitrate     = "128k"
	defaultImageQuality     = 85
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultLogFormat        = "auto"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
	defaultNotifyTimeout    = 10
)

// Encoders lists the accepted video.encoder values in preference order, with
// "auto" meaning detect at run time.
var Encoders = []string{"auto", "h264_nvenc", "h264_qsv", "h264_amf", "libx264"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Video: Video{
			Encoder:      defaultEncoder,
			Quality:      defaultVideoQuality,
			MaxHeight:    defaultMaxHeight,
			AudioBitrate: defaultAudioBitrate,
		},
		Image: Image{
			Quality: defaultImageQuality,
		},
		Pipeline: Pipeline{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

func runtimeNumCPU() int {
	return runtime.GOMAXPROCS(0)
}
