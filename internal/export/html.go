// Package export renders completed decks as standalone HTML documents and
// prints them to PDF through a headless chromium.
package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"slidecast/internal/deck"
	"slidecast/internal/services"
)

// MinSlides is the smallest deck considered presentable. Exports of smaller
// decks are rejected.
const MinSlides = 3

//go:embed deck.html.tmpl
var deckTemplateSource string

var deckTemplate = template.Must(template.New("deck").Parse(deckTemplateSource))

type templateSlide struct {
	Number       int
	Title        string
	Content      string
	SpeakerNotes string
}

type templateData struct {
	Title       string
	TotalSlides int
	Slides      []templateSlide
}

// RenderHTML produces a standalone HTML document for a completed deck. All
// deck and slide text passes through template escaping, so script fragments in
// titles or content render inert.
func RenderHTML(snapshot *deck.WithSlides) ([]byte, error) {
	if snapshot == nil {
		return nil, services.Wrap(services.ErrNotFound, "export", "render html", "deck not found", nil)
	}
	if snapshot.Status != deck.StatusCompleted {
		return nil, services.Wrap(services.ErrValidation, "export", "render html",
			fmt.Sprintf("deck is %s, only completed decks can be exported", snapshot.Status), nil)
	}
	if len(snapshot.Slides) < MinSlides {
		return nil, services.Wrap(services.ErrValidation, "export", "render html",
			fmt.Sprintf("deck has %d slides, at least %d are required", len(snapshot.Slides), MinSlides), nil)
	}

	data := templateData{
		Title:       snapshot.Title,
		TotalSlides: len(snapshot.Slides),
	}
	for i, slide := range snapshot.Slides {
		data.Slides = append(data.Slides, templateSlide{
			Number:       i + 1,
			Title:        slide.Title,
			Content:      slide.Content,
			SpeakerNotes: slide.SpeakerNotes,
		})
	}

	var buf bytes.Buffer
	if err := deckTemplate.Execute(&buf, data); err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "render html", "", err)
	}
	return buf.Bytes(), nil
}
