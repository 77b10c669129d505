package ffprobe

import (
	"encoding/json"
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Height: 1080},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.VideoHeight() != 1080 {
		t.Fatalf("unexpected height: %d", result.VideoHeight())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestVideoHeightSkipsAttachedPictures(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Height: 1400, Disposition: map[string]int{"attached_pic": 1}},
			{CodecType: "video", Height: 720},
		},
	}
	if result.VideoHeight() != 720 {
		t.Fatalf("expected cover art to be skipped, got height %d", result.VideoHeight())
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected cover art excluded from count, got %d", result.VideoStreamCount())
	}
}

func TestVideoHeightWithoutVideoStreams(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if result.VideoHeight() != 0 {
		t.Fatalf("expected 0 height, got %d", result.VideoHeight())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestDispositionDecodes(t *testing.T) {
	payload := `{
  "streams": [
    {"index": 0, "codec_type": "video", "height": 900,
     "disposition": {"default": 0, "attached_pic": 1}}
  ],
  "format": {"duration": "10.0"}
}`
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.VideoHeight() != 0 {
		t.Fatalf("expected attached pic to be ignored, got %d", result.VideoHeight())
	}
}
