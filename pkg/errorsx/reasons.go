package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonSTTConnect ReasonCode = "stt_connect"
	ReasonSTTSend    ReasonCode = "stt_send"

	ReasonTTSSynthesize ReasonCode = "tts_synthesize"

	ReasonLLMStream    ReasonCode = "llm_stream"
	ReasonLLMWarm      ReasonCode = "llm_warm"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"

	ReasonSearchQuery ReasonCode = "search_query"
	ReasonEmbed       ReasonCode = "embed"

	ReasonTransportSend  ReasonCode = "transport_send"
	ReasonTransportFrame ReasonCode = "transport_frame"
)
