// Package deck persists presentation decks and their slides in SQLite and
// exposes the whole-object status transitions the pipeline is allowed to
// make: create, attach audio, record transcript, mark completed, mark error,
// and slide creation with the parent deck's slide count kept in step.
//
// Every mutation runs inside a transaction so observers never see a deck
// snapshot whose totalSlides disagrees with its slide rows, and each
// committed change is published to the watch hub for live status consumers.
package deck
