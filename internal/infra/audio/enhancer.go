package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
)

// DefaultFilterGraph is the fixed post-processing chain: band
// limiting, gentle compression, loudness normalization, and a small
// clarity boost. Applied once to the whole reassembled buffer.
const DefaultFilterGraph = "highpass=f=80,lowpass=f=12000," +
	"acompressor=threshold=-18dB:ratio=3:attack=20:release=250," +
	"loudnorm=I=-16:TP=-1.5:LRA=11,treble=g=2"

// Enhancer runs the enhancement filter graph through ffmpeg over
// stdin/stdout pipes.
type Enhancer struct {
	binary string
	graph  string
	logger *slog.Logger
}

// NewEnhancer creates an enhancer. Empty arguments select the ffmpeg
// binary on PATH and the default filter graph.
func NewEnhancer(binary, graph string) *Enhancer {
	if binary == "" {
		binary = "ffmpeg"
	}
	if graph == "" {
		graph = DefaultFilterGraph
	}
	return &Enhancer{
		binary: binary,
		graph:  graph,
		logger: slog.Default().With("component", "enhancer"),
	}
}

// Enhance applies the filter graph to a PCM buffer and returns the
// processed PCM. The caller treats failure as non-fatal and keeps the
// input buffer.
func (e *Enhancer) Enhance(ctx context.Context, pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("empty audio buffer")
	}

	rate := strconv.Itoa(SampleRate)
	ch := strconv.Itoa(Channels)
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", rate,
		"-ac", ch,
		"-i", "pipe:0",
		"-af", e.graph,
		"-f", "s16le",
		"-ar", rate,
		"-ac", ch,
		"pipe:1",
	}

	// #nosec G204 -- Arguments are constructed internally, not from external input
	cmd := exec.CommandContext(ctx, e.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(pcm)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg filter pass failed: %w (%s)", err, stderr.String())
	}

	out := stdout.Bytes()
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}

	e.logger.Debug("Enhancement pass complete",
		"in_bytes", len(pcm), "out_bytes", len(out))
	return out, nil
}
