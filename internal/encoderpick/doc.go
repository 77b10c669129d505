// Package encoderpick chooses the H.264 encoder a conversion run uses.
//
// The probe parses `ffmpeg -encoders` once per run and prefers hardware
// encoders (NVENC, then QSV, then AMF) over libx264. Detection is advisory:
// every failure path lands on libx264 rather than aborting, since a missing
// or broken ffmpeg surfaces properly on the first real encode.
package encoderpick
