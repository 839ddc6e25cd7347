// Package services holds the error taxonomy and context helpers shared by the
// pipeline stages and service clients. Stages tag failures with sentinel
// markers via Wrap; Classify reads the markers back out to decide whether a
// failure should be retried and what message to persist on the deck.
package services
