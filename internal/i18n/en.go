package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// UI - Status bar
	"status.ready":      "Ready",
	"status.processing": "DANEYBIL ENGINE SYNCHRONIZING...",
	"status.strict":     "STRICT",
	"status.adaptive":   "ADAPTIVE",
	"status.audio_on":   "AUDIO ON",
	"status.audio_off":  "AUDIO OFF",
	"status.copy_on":    "AUTO-COPY ON",
	"status.copy_off":   "AUTO-COPY OFF",
	"status.tokens":     "~%d tokens",

	// UI - Confirmation bar
	"confirm.pending": "Command awaiting confirmation",
	"confirm.keys":    "y confirm · n cancel",

	// UI - Input
	"input.placeholder": "Issue a command... (Shift+Enter for newline)",
	"input.attach_hint": "/attach <path> to attach an image",

	// UI - Keybindings (TUI)
	"keys.submit":  "enter send",
	"keys.strict":  "ctrl+s strict",
	"keys.audio":   "ctrl+g audio",
	"keys.copy":    "ctrl+y copy",
	"keys.newsess": "ctrl+n new session",
	"keys.quit":    "ctrl+c quit",

	// Sessions
	"sessions.header":    "Sessions (most recent first)",
	"sessions.empty":     "No saved sessions.",
	"sessions.switched":  "Switched to session %s",
	"sessions.created":   "Started new session %s",
	"sessions.not_found": "Session not found: %s",

	// Errors surfaced by the UI
	"error.busy":             "A command is still executing. Wait for it to finish.",
	"error.empty":            "Nothing to send.",
	"error.credentials":      "Credentials required. Set a valid API key and run /key.",
	"error.not_awaiting":     "No command is awaiting confirmation.",
	"error.attach_not_found": "Cannot read image: %s",

	// Toggles
	"toggle.strict_on":  "Strict mode engaged. Zero-deviation execution.",
	"toggle.strict_off": "Adaptive mode engaged. Suggestions permitted.",
	"toggle.audio_on":   "Narration enabled.",
	"toggle.audio_off":  "Narration disabled.",
	"toggle.copy_on":    "Auto-copy enabled.",
	"toggle.copy_off":   "Auto-copy disabled.",

	// Live call
	"live.started": "Live voice link established. Speak your commands.",
	"live.ended":   "Live voice link closed.",

	// REPL
	"repl.help": `Commands:
  /sessions            list saved sessions
  /resume <id|index>   resume a session
  /new                 start a new session
  /strict              toggle strict mode
  /audio               toggle narration
  /copy                toggle auto-copy
  /attach <path>       attach an image to the next command
  /confirm             confirm the pending command
  /cancel              cancel the pending command
  /key                 clear the credentials latch after swapping keys
  /model [name]        show or switch the model
  /call                start a live voice call
  /help                this help
  /exit                quit`,
	"repl.bye":      "Link terminated.",
	"repl.attached": "Image attached: %s",
	"repl.model":    "Active model: %s",
}
