package ffmpegcmd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// VideoSpec describes a single video conversion invocation.
type VideoSpec struct {
	InputPath  string
	OutputPath string
	// Encoder is the -c:v value, e.g. libx264 or h264_nvenc.
	Encoder string
	// QualityArgs carries the encoder-specific constant quality flags.
	QualityArgs []string
	// ScaleHeight, when positive, inserts a downscale filter to that
	// height. Zero means the source size is kept.
	ScaleHeight  int
	AudioBitrate string
}

// BuildVideoArgs constructs the complete ffmpeg argument slice for a
// conversion. The sections appear in a fixed order so two runs over the same
// file produce the same command line.
func BuildVideoArgs(spec VideoSpec) []string {
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args, "-hide_banner", "-nostdin", "-y", "-loglevel", "error")

	// --- Input ---
	args = append(args, "-i", spec.InputPath)

	// --- Video codec ---
	args = append(args, "-c:v", spec.Encoder)
	args = append(args, spec.QualityArgs...)

	// --- Conditional downscale ---
	// -2 rounds the width to an even value, which H.264 requires.
	if spec.ScaleHeight > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", spec.ScaleHeight))
	}

	// --- Audio ---
	args = append(args, "-c:a", "aac", "-b:a", spec.AudioBitrate)

	// --- Container ---
	// The output is written to a temp name without a .mp4 suffix, so the
	// container must be stated explicitly.
	args = append(args, "-movflags", "+faststart", "-f", "mp4")

	// --- Output ---
	args = append(args, spec.OutputPath)

	return args
}

// stderrLimit bounds how much encoder chatter is kept for error messages.
// The root cause is in the first lines; the rest is repetition.
const stderrLimit = 4096

// boundedBuffer keeps the first stderrLimit bytes written and counts the rest.
type boundedBuffer struct {
	buf     bytes.Buffer
	dropped int64
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if remaining := stderrLimit - b.buf.Len(); remaining > 0 {
		if len(p) <= remaining {
			b.buf.Write(p)
		} else {
			b.buf.Write(p[:remaining])
			b.dropped += int64(len(p) - remaining)
		}
	} else {
		b.dropped += int64(len(p))
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	out := strings.TrimSpace(b.buf.String())
	if b.dropped > 0 {
		out = fmt.Sprintf("%s [+%d bytes dropped]", out, b.dropped)
	}
	return out
}

// Run executes ffmpeg with the given arguments and waits for it to finish.
// On a nonzero exit the captured stderr is folded into the returned error.
// When ctx expires the process is killed and the context error is part of
// the chain, so callers can distinguish timeouts from encode failures.
func Run(ctx context.Context, binary string, args []string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	stderr := &boundedBuffer{}
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		if detail := stderr.String(); detail != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, detail)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}
