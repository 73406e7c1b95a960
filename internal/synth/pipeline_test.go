package synth

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/infra/audio"
	"github.com/castforge/castforge/internal/provider/tts"
	"github.com/castforge/castforge/internal/resilience"
)

// =============================================================================
// Fakes
// =============================================================================

// fakeSynth returns a deterministic two-byte pattern per request so a
// test can predict the exact reassembled buffer.
type fakeSynth struct {
	name      string
	available bool
	fill      byte
	err       error
	failFirst int // fail this many calls before succeeding
	calls     int
	requests  []tts.SpeechRequest
}

func (f *fakeSynth) Name() string           { return f.name }
func (f *fakeSynth) Available() bool        { return f.available }
func (f *fakeSynth) Timeout() time.Duration { return 0 }

func (f *fakeSynth) Synthesize(ctx context.Context, req tts.SpeechRequest) ([]byte, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.failFirst {
		return nil, errors.New("503 service unavailable")
	}
	return bytes.Repeat([]byte{f.fill}, 240), nil
}

type fakeEnhancer struct {
	err   error
	calls int
	got   []byte
}

func (f *fakeEnhancer) Enhance(ctx context.Context, pcm []byte) ([]byte, error) {
	f.calls++
	f.got = append([]byte(nil), pcm...)
	if f.err != nil {
		return nil, f.err
	}
	// Mark the buffer so tests can tell the pass ran.
	out := append([]byte(nil), pcm...)
	for i := range out {
		out[i] ^= 0xFF
	}
	return out, nil
}

func testPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxRetries:         1,
		BaseDelay:          time.Millisecond,
		MaxDelay:           5 * time.Millisecond,
		ExponentialBackoff: true,
	}
}

func newTestPipeline(enh Enhancer, maxChunkLen int, synths ...tts.Synthesizer) *Pipeline {
	executor := resilience.NewExecutor(resilience.NewRetrier(resilience.NewClassifier(resilience.NewErrorLog(0))))
	return NewPipeline(executor, synths, enh, testPolicy(), maxChunkLen)
}

// =============================================================================
// Tests
// =============================================================================

func TestSynthesizeSingleChunk(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	p := newTestPipeline(nil, 0, s)

	result, err := p.Synthesize(context.Background(), "A short script.", Options{})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false, classification %+v", result.Error)
	}
	if result.Metadata.Chunks != 1 {
		t.Errorf("Chunks = %d, want 1", result.Metadata.Chunks)
	}
	if result.Metadata.Provider != "elevenlabs" {
		t.Errorf("Provider = %s", result.Metadata.Provider)
	}
	if result.Metadata.FallbackUsed {
		t.Error("FallbackUsed = true on a clean run")
	}
	if result.EnhancedAudio {
		t.Error("EnhancedAudio = true with no enhancer")
	}

	// One chunk means no silence: header plus exactly the provider bytes.
	want := audio.WrapWAV(bytes.Repeat([]byte{0xAA}, 240))
	if !bytes.Equal(result.Audio, want) {
		t.Error("audio is not header + provider payload")
	}
}

func TestSynthesizeReassemblyByteExact(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	p := newTestPipeline(nil, 30, s)

	script := "First sentence here. Second sentence follows! Third one closes."
	result, err := p.Synthesize(context.Background(), script, Options{})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false, classification %+v", result.Error)
	}
	if result.Metadata.Chunks != 3 {
		t.Fatalf("Chunks = %d, want 3", result.Metadata.Chunks)
	}

	// chunk + pause(.) + chunk + pause(!) + chunk, no trailing silence.
	seg := bytes.Repeat([]byte{0xAA}, 240)
	var want []byte
	want = append(want, seg...)
	want = append(want, audio.Silence(450*time.Millisecond)...)
	want = append(want, seg...)
	want = append(want, audio.Silence(650*time.Millisecond)...)
	want = append(want, seg...)

	if !bytes.Equal(result.Audio, audio.WrapWAV(want)) {
		t.Error("reassembled audio does not match expected concatenation")
	}
	if result.Metadata.AudioDuration != audio.Duration(want) {
		t.Errorf("AudioDuration = %v, want %v", result.Metadata.AudioDuration, audio.Duration(want))
	}
}

func TestSynthesizeFallbackAcrossChunks(t *testing.T) {
	primary := &fakeSynth{name: "elevenlabs", available: true, fill: 0x01}
	backup := &fakeSynth{name: "openai", available: true, fill: 0x02}
	p := newTestPipeline(nil, 30, primary, backup)

	script := "First sentence here. Second sentence follows."

	result, err := p.Synthesize(context.Background(), script, Options{ProviderHint: "elevenlabs"})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %+v", result.Error)
	}
	if result.Metadata.FallbackUsed {
		t.Error("FallbackUsed = true though the preferred provider served everything")
	}

	primary2 := &fakeSynth{name: "elevenlabs", available: true, err: errors.New("503 service unavailable")}
	p2 := newTestPipeline(nil, 30, primary2, backup)
	result, err = p2.Synthesize(context.Background(), script, Options{ProviderHint: "elevenlabs"})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %+v", result.Error)
	}
	if !result.Metadata.FallbackUsed {
		t.Error("FallbackUsed = false though openai served")
	}
	if result.Metadata.Provider != "openai" {
		t.Errorf("Provider = %s, want openai", result.Metadata.Provider)
	}
	if result.Metadata.OriginalProvider != "elevenlabs" {
		t.Errorf("OriginalProvider = %s, want elevenlabs", result.Metadata.OriginalProvider)
	}
}

func TestSynthesizeChunkFailureAbortsRequest(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, err: errors.New("401 unauthorized")}
	p := newTestPipeline(nil, 0, s)

	result, err := p.Synthesize(context.Background(), "Doomed script.", Options{})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if result.Success {
		t.Fatal("Success = true though every provider failed")
	}
	if result.Audio != nil {
		t.Error("failed result carries partial audio")
	}
	if result.Error == nil || result.Error.Code != domain.CodeAuthError {
		t.Errorf("Error = %+v, want AUTH_ERROR classification", result.Error)
	}
}

func TestSynthesizeEmptyAfterPreprocess(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	p := newTestPipeline(nil, 0, s)

	result, err := p.Synthesize(context.Background(), "[music] (applause)", Options{})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if result.Success {
		t.Fatal("Success = true for an empty script")
	}
	if result.Error.Code != domain.CodeValidationError {
		t.Errorf("Error.Code = %s, want VALIDATION_ERROR", result.Error.Code)
	}
	if s.calls != 0 {
		t.Errorf("provider invoked %d times for empty input", s.calls)
	}
}

func TestSynthesizeEnhancement(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	enh := &fakeEnhancer{}
	p := newTestPipeline(enh, 0, s)

	result, err := p.Synthesize(context.Background(), "Enhanced run.", Options{Enhance: true})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !result.EnhancedAudio {
		t.Error("EnhancedAudio = false though enhancement ran")
	}
	if enh.calls != 1 {
		t.Errorf("enhancer called %d times, want 1", enh.calls)
	}
	want := audio.WrapWAV(bytes.Repeat([]byte{0x55}, 240)) // 0xAA ^ 0xFF
	if !bytes.Equal(result.Audio, want) {
		t.Error("audio is not the enhanced buffer")
	}
}

func TestSynthesizeEnhancementFailureNonFatal(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	enh := &fakeEnhancer{err: errors.New("ffmpeg exited 1")}
	p := newTestPipeline(enh, 0, s)

	result, err := p.Synthesize(context.Background(), "Still fine.", Options{Enhance: true})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !result.Success {
		t.Fatal("Success = false; enhancement failure must not fail the request")
	}
	if result.EnhancedAudio {
		t.Error("EnhancedAudio = true though enhancement failed")
	}
	want := audio.WrapWAV(bytes.Repeat([]byte{0xAA}, 240))
	if !bytes.Equal(result.Audio, want) {
		t.Error("audio is not the raw buffer after a failed enhancement")
	}
}

func TestSynthesizeEnhanceDisabled(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	enh := &fakeEnhancer{}
	p := newTestPipeline(enh, 0, s)

	result, err := p.Synthesize(context.Background(), "Raw run.", Options{Enhance: false})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if enh.calls != 0 {
		t.Errorf("enhancer called %d times with Enhance=false", enh.calls)
	}
	if result.EnhancedAudio {
		t.Error("EnhancedAudio = true with Enhance=false")
	}
}

func TestSynthesizeVoiceAndSettingsReachProvider(t *testing.T) {
	s := &fakeSynth{name: "openai", available: true, fill: 0xAA}
	p := newTestPipeline(nil, 0, s)

	_, err := p.Synthesize(context.Background(), "Check the request.", Options{
		VoiceID:       "narrator-male",
		StabilityHint: 0.4,
	})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if len(s.requests) != 1 {
		t.Fatalf("provider saw %d requests, want 1", len(s.requests))
	}
	req := s.requests[0]
	if req.Voice != "onyx" {
		t.Errorf("Voice = %s, want onyx", req.Voice)
	}
	// Sole chunk is both first and last: stability hint + 0.15.
	if math.Abs(req.Settings.Stability-0.55) > 1e-9 {
		t.Errorf("Stability = %v, want 0.55", req.Settings.Stability)
	}
}

func TestSynthesizeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	p := newTestPipeline(nil, 0, s)

	_, err := p.Synthesize(ctx, "Never runs.", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSynthesizeLongScriptChunkCount(t *testing.T) {
	s := &fakeSynth{name: "elevenlabs", available: true, fill: 0xAA}
	p := newTestPipeline(nil, 500, s)

	// Twelve ~100-rune sentences against a 500-rune budget: three chunks.
	sentence := strings.Repeat("word ", 19) + "done."
	script := strings.TrimSpace(strings.Repeat(sentence+" ", 12))

	result, err := p.Synthesize(context.Background(), script, Options{})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if result.Metadata.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", result.Metadata.Chunks)
	}
	if s.calls != 3 {
		t.Errorf("provider calls = %d, want 3", s.calls)
	}
}
