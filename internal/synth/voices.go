package synth

// Voice mapping between the abstract voice identifiers callers use and
// the provider-specific voice names. A missing entry falls back to the
// provider's default voice rather than failing the request.

type voiceKey struct {
	provider string
	voiceID  string
}

var voiceTable = map[voiceKey]string{
	{"elevenlabs", "narrator-male"}:   "pNInz6obpgDQGcFmaJgB",
	{"elevenlabs", "narrator-female"}: "21m00Tcm4TlvDq8ikWAM",
	{"elevenlabs", "host-casual"}:     "TxGEqnHWrfWFTfGW9XjX",
	{"elevenlabs", "host-warm"}:       "EXAVITQu4vr4xnSDxMaL",
	{"openai", "narrator-male"}:       "onyx",
	{"openai", "narrator-female"}:     "nova",
	{"openai", "host-casual"}:         "echo",
	{"openai", "host-warm"}:           "shimmer",
}

var defaultVoices = map[string]string{
	"elevenlabs": "21m00Tcm4TlvDq8ikWAM",
	"openai":     "alloy",
}

// resolveVoice maps an abstract voice id to the provider's voice name.
func resolveVoice(providerName, voiceID string) string {
	if v, ok := voiceTable[voiceKey{providerName, voiceID}]; ok {
		return v
	}
	return defaultVoices[providerName]
}
