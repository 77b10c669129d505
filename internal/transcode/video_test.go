package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"webmill/internal/config"
	"webmill/internal/encoderpick"
	"webmill/internal/media"
	"webmill/internal/media/ffprobe"
	"webmill/internal/services"
)

func overrideProbe(t *testing.T, result ffprobe.Result, err error) {
	t.Helper()
	previous := inspectSource
	inspectSource = func(context.Context, string, string) (ffprobe.Result, error) {
		return result, err
	}
	t.Cleanup(func() { inspectSource = previous })
}

// writeFFmpegStub records its arguments and writes a marker byte to the last
// argument, which is where ffmpeg would place the output file.
func writeFFmpegStub(t *testing.T, argsPath string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' \"$@\" > %q\nfor last; do :; done\nprintf 'encoded' > \"$last\"\n", argsPath)
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	return path
}

func videoFixture(t *testing.T, ffmpegBinary string) (*Video, media.Task, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.FFmpegBinary = ffmpegBinary
	cfg.Pipeline.FFprobeBinary = "ffprobe-unused"

	srcDir := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(srcDir, "clip.mkv")
	if err := os.WriteFile(src, []byte("container bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	task := media.Task{
		Source:     media.SourceFile{Path: src, RelPath: "clip.mkv", Kind: media.KindVideo},
		OutputPath: filepath.Join(outDir, "clip.mp4"),
	}
	v := NewVideo(&cfg, encoderpick.Selection{Encoder: "libx264", Source: encoderpick.SourceFallback}, nil)
	return v, task, outDir
}

func TestVideoTranscodeDownscalesTallSources(t *testing.T) {
	argsPath := filepath.Join(t.TempDir(), "ffmpeg.args")
	v, task, outDir := videoFixture(t, writeFFmpegStub(t, argsPath))
	overrideProbe(t, ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", Height: 2160}}}, nil)

	if err := v.Transcode(context.Background(), task); err != nil {
		t.Fatalf("Transcode returned error: %v", err)
	}

	content, err := os.ReadFile(task.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(content) != "encoded" {
		t.Fatalf("unexpected output content %q", content)
	}

	args, err := os.ReadFile(argsPath)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	joined := strings.ReplaceAll(string(args), "\n", " ")
	for _, fragment := range []string{"scale=-2:720", "-crf 21", "-c:a aac", "-b:a 128k", "-movflags +faststart", "-f mp4"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in ffmpeg args: %s", fragment, joined)
		}
	}
	assertNoTempFiles(t, outDir)
}

func TestVideoTranscodeKeepsSmallSources(t *testing.T) {
	argsPath := filepath.Join(t.TempDir(), "ffmpeg.args")
	v, task, _ := videoFixture(t, writeFFmpegStub(t, argsPath))
	overrideProbe(t, ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", Height: 720}}}, nil)

	if err := v.Transcode(context.Background(), task); err != nil {
		t.Fatalf("Transcode returned error: %v", err)
	}

	args, err := os.ReadFile(argsPath)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	if strings.Contains(string(args), "scale=") {
		t.Fatalf("expected no scale filter for 720p source, got args: %s", args)
	}
}

func TestVideoTranscodeFailureLeavesNoOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	failing := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n"
	if err := os.WriteFile(failing, []byte(script), 0o755); err != nil {
		t.Fatalf("write failing stub: %v", err)
	}

	v, task, outDir := videoFixture(t, failing)
	overrideProbe(t, ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", Height: 480}}}, nil)

	err := v.Transcode(context.Background(), task)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected encode marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected ffmpeg stderr in error, got %v", err)
	}
	if _, statErr := os.Stat(task.OutputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err: %v", statErr)
	}
	assertNoTempFiles(t, outDir)
}

func TestVideoTranscodeRejectsSourcesWithoutVideo(t *testing.T) {
	argsPath := filepath.Join(t.TempDir(), "ffmpeg.args")
	v, task, _ := videoFixture(t, writeFFmpegStub(t, argsPath))
	overrideProbe(t, ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio"}}}, nil)

	err := v.Transcode(context.Background(), task)
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected encode marker, got %v", err)
	}
	if _, statErr := os.Stat(argsPath); !os.IsNotExist(statErr) {
		t.Fatal("expected ffmpeg to never run for audio-only source")
	}
}

func TestVideoTranscodeWrapsProbeFailure(t *testing.T) {
	v, task, _ := videoFixture(t, "ffmpeg-unused")
	overrideProbe(t, ffprobe.Result{}, errors.New("moov atom not found"))

	err := v.Transcode(context.Background(), task)
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected encode marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "moov atom") {
		t.Fatalf("expected probe detail in error, got %v", err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("leftover temp file %q", entry.Name())
		}
	}
}
