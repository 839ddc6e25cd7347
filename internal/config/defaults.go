package config

const (
	defaultDataDir               = "~/.local/share/slidecast/data"
	defaultAudioDir              = "~/.local/share/slidecast/audio"
	defaultLogDir                = "~/.local/share/slidecast/logs"
	defaultAPIBind               = "127.0.0.1:7611"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultTranscriberTimeout    = 600
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/slidecast/slidecast"
	defaultLLMTitle              = "Slidecast Slide Generator"
	defaultLLMTimeoutSeconds     = 60
	defaultChromiumBinary        = "chromium"
	defaultPDFTimeoutSeconds     = 30
	defaultMaxUploadMiB          = 50
	defaultNtfyRequestTimeout    = 10
	defaultPollInterval          = 5
	defaultErrorRetryInterval    = 10
	defaultTranscribeAttempts    = 2
	defaultGenerateAttempts      = 3
	defaultExportAttempts        = 2
	defaultRetryBaseDelayMS      = 1000
	defaultRetryMaxDelayMS       = 10000
	defaultStorageTimeoutSeconds = 10
)

// DefaultSlidePrompt is the system prompt used when the config does not
// override [llm].slide_prompt. The generator substitutes the transcript as
// the user message.
const DefaultSlidePrompt = `You turn spoken-word transcripts into concise slide decks. ` +
	`Respond with a JSON object {"slides": [{"title": string, "content": string, "speakerNotes": string}]}. ` +
	`Produce between 3 and 10 slides. Titles are short headlines; content is one ` +
	`or two plain sentences; speakerNotes expand on delivery.`

// DefaultNotesPrompt is the system prompt for regenerating speaker notes for
// a single slide.
const DefaultNotesPrompt = `You write speaker notes for presentation slides. ` +
	`Given a slide title and content, respond with a JSON object {"speakerNotes": string} ` +
	`containing two to four sentences a presenter would say for that slide.`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			AudioDir: defaultAudioDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Transcriber: Transcriber{
			TimeoutSeconds: defaultTranscriberTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			SlidePrompt:    DefaultSlidePrompt,
			NotesPrompt:    DefaultNotesPrompt,
		},
		Export: Export{
			ChromiumBinary:    defaultChromiumBinary,
			PDFTimeoutSeconds: defaultPDFTimeoutSeconds,
		},
		Upload: Upload{
			MaxSizeMiB: defaultMaxUploadMiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Completed:      true,
			Errors:         true,
		},
		Pipeline: Pipeline{
			PollInterval:          defaultPollInterval,
			ErrorRetryInterval:    defaultErrorRetryInterval,
			TranscribeAttempts:    defaultTranscribeAttempts,
			GenerateAttempts:      defaultGenerateAttempts,
			ExportAttempts:        defaultExportAttempts,
			RetryBaseDelayMS:      defaultRetryBaseDelayMS,
			RetryMaxDelayMS:       defaultRetryMaxDelayMS,
			StorageTimeoutSeconds: defaultStorageTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
