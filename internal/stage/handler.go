package stage

import (
	"context"

	"slidecast/internal/deck"
)

// Handler describes the contract the pipeline manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *deck.Deck) error
	Execute(context.Context, *deck.Deck) error
	HealthCheck(context.Context) Health
}
