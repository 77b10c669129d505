package encoderpick

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// Source tells how an encoder selection was made.
type Source string

const (
	// SourceConfigured means the operator pinned the encoder in config.
	SourceConfigured Source = "configured"
	// SourceDetected means a hardware encoder was found by probing ffmpeg.
	SourceDetected Source = "detected"
	// SourceFallback means detection found nothing usable and the CPU
	// encoder was chosen.
	SourceFallback Source = "fallback"
)

// Selection names the H.264 encoder a run will use.
type Selection struct {
	Encoder string
	Source  Source
}

// cpuEncoder always exists in a stock ffmpeg build.
const cpuEncoder = "libx264"

// Hardware encoders in preference order.
var hardwareEncoders = []string{"h264_nvenc", "h264_qsv", "h264_amf"}

// Pick resolves the configured encoder name. "auto" (or empty) probes the
// ffmpeg build; any other value is honored as-is.
func Pick(ctx context.Context, ffmpegBinary, configured string) Selection {
	configured = strings.ToLower(strings.TrimSpace(configured))
	if configured != "" && configured != "auto" {
		return Selection{Encoder: configured, Source: SourceConfigured}
	}
	return Detect(ctx, ffmpegBinary)
}

// Detect probes `ffmpeg -encoders` for hardware H.264 encoders and returns
// the most preferred one present. Detection never fails: any probe problem
// falls back to libx264, which a later encode will exercise for real.
func Detect(ctx context.Context, ffmpegBinary string) Selection {
	available, err := listEncoders(ctx, ffmpegBinary)
	if err != nil {
		return Selection{Encoder: cpuEncoder, Source: SourceFallback}
	}
	for _, name := range hardwareEncoders {
		if available[name] {
			return Selection{Encoder: name, Source: SourceDetected}
		}
	}
	return Selection{Encoder: cpuEncoder, Source: SourceFallback}
}

func listEncoders(ctx context.Context, binary string) (map[string]bool, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	// Listing lines look like "V....D h264_nvenc  NVIDIA NVENC ...";
	// the name sits in the second column.
	available := make(map[string]bool)
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			available[fields[1]] = true
		}
	}
	return available, nil
}

// QualityArgs returns the constant-quality arguments for the given encoder.
// Each encoder family spells "target this quality" differently; the numeric
// scale is CRF-like for all of them.
func QualityArgs(encoder string, quality int) []string {
	q := strconv.Itoa(quality)
	switch encoder {
	case "h264_nvenc":
		return []string{"-rc", "vbr", "-cq", q}
	case "h264_qsv":
		return []string{"-global_quality", q}
	case "h264_amf":
		return []string{"-quality", "quality", "-qp", q}
	default:
		return []string{"-crf", q}
	}
}
