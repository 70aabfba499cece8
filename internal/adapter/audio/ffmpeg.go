package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpeg settings for MP3 encoding.
const (
	FFmpegCommand     = "ffmpeg"
	DefaultMP3Bitrate = "192k"
)

// FFmpegEncoder implements domain.Encoder by piping a WAV file through ffmpeg
// and reading MP3 from its stdout.
type FFmpegEncoder struct {
	path    string
	bitrate string
}

// NewFFmpegEncoder creates an encoder. Empty arguments fall back to the
// ffmpeg on PATH and DefaultMP3Bitrate.
func NewFFmpegEncoder(path, bitrate string) *FFmpegEncoder {
	if path == "" {
		path = FFmpegCommand
	}
	if bitrate == "" {
		bitrate = DefaultMP3Bitrate
	}
	return &FFmpegEncoder{path: path, bitrate: bitrate}
}

// Encode converts an in-memory WAV file to MP3.
func (e *FFmpegEncoder) Encode(ctx context.Context, wav []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.path,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "wav",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", e.bitrate,
		"-f", "mp3",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(wav)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("ffmpeg mp3 encode: %w", err)
		}
		return nil, fmt.Errorf("ffmpeg mp3 encode: %w: %s", err, msg)
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg mp3 encode: produced no output")
	}
	return stdout.Bytes(), nil
}
