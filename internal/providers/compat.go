package providers

// CompatMatrix captures the per-model wire-format quirks the
// OpenAI-Completions adapter must branch on, grounded on the teacher's
// per-model capability table for the chat-completions API (several
// OpenAI-compatible backends reuse the same endpoint shape but disagree
// on these details).
type CompatMatrix struct {
	// SupportsStore controls whether `store: true` is sent so the
	// response can be retrieved later by id.
	SupportsStore bool

	// SupportsDeveloperRole selects "developer" over "system" for the
	// leading instruction message (the newer OpenAI reasoning models
	// renamed the role).
	SupportsDeveloperRole bool

	// SupportsReasoningEffort gates sending `reasoning_effort`.
	SupportsReasoningEffort bool

	// SupportsUsageInStreaming gates requesting
	// `stream_options: {include_usage: true}`.
	SupportsUsageInStreaming bool

	// MaxTokensField selects which token-limit field name the model
	// accepts: "max_tokens" or "max_completion_tokens".
	MaxTokensField string

	// RequiresToolResultName requires the tool name to be echoed back
	// on a tool-result message, not just the call id (some
	// OpenAI-compatible backends reject a tool message without it).
	RequiresToolResultName bool

	// RequiresAssistantAfterToolResult requires a message immediately
	// following a tool_result to have role "assistant", so a synthetic
	// empty assistant message must be inserted if the canonical history
	// would otherwise go straight to the next user turn.
	RequiresAssistantAfterToolResult bool

	// RequiresThinkingAsText folds thinking blocks into the visible
	// text content instead of a dedicated reasoning field, for
	// backends with no reasoning-content wire support.
	RequiresThinkingAsText bool

	// RequiresMistralToolIds requires tool_call ids in the
	// nine-character alphanumeric form Mistral's (and MiniMax's
	// compatible) API validates, instead of passing the canonical call
	// id through unchanged.
	RequiresMistralToolIds bool

	// SanitizeToolIDs charset-sanitizes call ids ([^A-Za-z0-9_-] -> "_")
	// before sending, for backends such as GitHub Copilot's
	// Claude-compatible endpoint that reject anything else.
	SanitizeToolIDs bool

	// ToolIDMaxLen truncates a sanitized call id to this many
	// characters (0 = unlimited). Only consulted when SanitizeToolIDs
	// is set.
	ToolIDMaxLen int

	// ThinkingFormat selects how a reasoning/thinking block is encoded
	// in the request body when the backend does support one natively.
	ThinkingFormat ThinkingFormat
}

// ThinkingFormat enumerates the wire shapes a reasoning block can take
// across OpenAI-Completions-compatible backends.
type ThinkingFormat string

const (
	ThinkingFormatNone       ThinkingFormat = ""
	ThinkingFormatReasoning  ThinkingFormat = "reasoning_content"
	ThinkingFormatThinkBlock ThinkingFormat = "think_block"
)

// DefaultCompatMatrix is tuned for OpenAI's own chat-completions
// endpoint.
func DefaultCompatMatrix() CompatMatrix {
	return CompatMatrix{
		SupportsStore:            true,
		SupportsDeveloperRole:    true,
		SupportsReasoningEffort:  true,
		SupportsUsageInStreaming: true,
		MaxTokensField:           "max_completion_tokens",
		ThinkingFormat:           ThinkingFormatNone,
	}
}

// PermissiveCompatMatrix disables every optional knob, a safe default
// for an unrecognized OpenAI-compatible backend.
func PermissiveCompatMatrix() CompatMatrix {
	return CompatMatrix{MaxTokensField: "max_tokens"}
}
