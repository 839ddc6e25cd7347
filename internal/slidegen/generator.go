package slidegen

import (
	"context"
	"fmt"
	"strings"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/services"
)

// Completer is the model surface the generator needs; satisfied by Client and
// by test fakes.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator turns transcripts into slide sets using the configured model.
type Generator struct {
	client      Completer
	slidePrompt string
	notesPrompt string
}

// NewGenerator builds a generator over the supplied completion client.
func NewGenerator(client Completer, llm config.LLM) *Generator {
	slidePrompt := strings.TrimSpace(llm.SlidePrompt)
	if slidePrompt == "" {
		slidePrompt = config.DefaultSlidePrompt
	}
	notesPrompt := strings.TrimSpace(llm.NotesPrompt)
	if notesPrompt == "" {
		notesPrompt = config.DefaultNotesPrompt
	}
	return &Generator{client: client, slidePrompt: slidePrompt, notesPrompt: notesPrompt}
}

type generatedSlide struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	SpeakerNotes string `json:"speakerNotes"`
}

type slidePayload struct {
	Slides []generatedSlide `json:"slides"`
}

// Generate produces an ordered slide set from a transcript. The deck title is
// passed along so the model can keep slides on topic.
func (g *Generator) Generate(ctx context.Context, deckTitle, transcript string) ([]deck.NewSlide, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, services.Wrap(services.ErrValidation, "generate", "build prompt", "transcript is empty", nil)
	}

	userPrompt := fmt.Sprintf("Deck title: %s\n\nTranscript:\n%s", strings.TrimSpace(deckTitle), transcript)
	content, err := g.client.CompleteJSON(ctx, g.slidePrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var payload slidePayload
	if err := DecodeModelJSON(content, &payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, "generate", "parse slides", "", err)
	}
	if len(payload.Slides) == 0 {
		return nil, services.Wrap(services.ErrTransient, "generate", "parse slides", "model returned no slides", nil)
	}

	slides := make([]deck.NewSlide, 0, len(payload.Slides))
	for i, slide := range payload.Slides {
		title := strings.TrimSpace(slide.Title)
		body := strings.TrimSpace(slide.Content)
		if title == "" || body == "" {
			return nil, services.Wrap(services.ErrTransient, "generate", "parse slides",
				fmt.Sprintf("slide %d missing title or content", i), nil)
		}
		slides = append(slides, deck.NewSlide{
			Title:        title,
			Content:      body,
			SpeakerNotes: strings.TrimSpace(slide.SpeakerNotes),
			Position:     i,
		})
	}
	return slides, nil
}

type notesPayload struct {
	SpeakerNotes string `json:"speakerNotes"`
}

// RegenerateNotes produces fresh speaker notes for one slide.
func (g *Generator) RegenerateNotes(ctx context.Context, slideTitle, slideContent string) (string, error) {
	slideTitle = strings.TrimSpace(slideTitle)
	slideContent = strings.TrimSpace(slideContent)
	if slideTitle == "" || slideContent == "" {
		return "", services.Wrap(services.ErrValidation, "generate", "build notes prompt",
			"slide title and content are required", nil)
	}

	userPrompt := fmt.Sprintf("Slide title: %s\nSlide content: %s", slideTitle, slideContent)
	content, err := g.client.CompleteJSON(ctx, g.notesPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	var payload notesPayload
	if err := DecodeModelJSON(content, &payload); err != nil {
		return "", services.Wrap(services.ErrTransient, "generate", "parse notes", "", err)
	}
	notes := strings.TrimSpace(payload.SpeakerNotes)
	if notes == "" {
		return "", services.Wrap(services.ErrTransient, "generate", "parse notes", "model returned no notes", nil)
	}
	return notes, nil
}
