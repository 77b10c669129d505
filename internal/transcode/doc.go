// Package transcode holds the two converters the pipeline dispatches to:
// Video (external ffmpeg producing H.264 MP4) and Image (in-process
// progressive JPEG).
//
// Both write through a temp file in the destination directory and rename on
// success, so a failed or interrupted conversion never leaves a partial
// output. Failures come back wrapped with the services error markers the
// runner uses to separate per-file failures from fatal ones.
package transcode
