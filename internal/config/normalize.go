package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscriber()
	c.normalizeLLM()
	c.normalizeExport()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.Command = strings.TrimSpace(c.Transcriber.Command)
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	if c.Transcriber.TimeoutSeconds <= 0 {
		c.Transcriber.TimeoutSeconds = defaultTranscriberTimeout
	}
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("SLIDECAST_LLM_API_KEY"))
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if strings.TrimSpace(c.LLM.SlidePrompt) == "" {
		c.LLM.SlidePrompt = DefaultSlidePrompt
	}
	if strings.TrimSpace(c.LLM.NotesPrompt) == "" {
		c.LLM.NotesPrompt = DefaultNotesPrompt
	}
}

func (c *Config) normalizeExport() {
	c.Export.ChromiumBinary = strings.TrimSpace(c.Export.ChromiumBinary)
	if c.Export.ChromiumBinary == "" {
		c.Export.ChromiumBinary = defaultChromiumBinary
	}
	if c.Export.PDFTimeoutSeconds <= 0 {
		c.Export.PDFTimeoutSeconds = defaultPDFTimeoutSeconds
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.PollInterval <= 0 {
		c.Pipeline.PollInterval = defaultPollInterval
	}
	if c.Pipeline.ErrorRetryInterval <= 0 {
		c.Pipeline.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Pipeline.TranscribeAttempts <= 0 {
		c.Pipeline.TranscribeAttempts = defaultTranscribeAttempts
	}
	if c.Pipeline.GenerateAttempts <= 0 {
		c.Pipeline.GenerateAttempts = defaultGenerateAttempts
	}
	if c.Pipeline.ExportAttempts <= 0 {
		c.Pipeline.ExportAttempts = defaultExportAttempts
	}
	if c.Pipeline.RetryBaseDelayMS <= 0 {
		c.Pipeline.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
	if c.Pipeline.RetryMaxDelayMS <= 0 {
		c.Pipeline.RetryMaxDelayMS = defaultRetryMaxDelayMS
	}
	if c.Pipeline.StorageTimeoutSeconds <= 0 {
		c.Pipeline.StorageTimeoutSeconds = defaultStorageTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
