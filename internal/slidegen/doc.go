// Package slidegen converts deck transcripts into ordered slide sets by
// calling an OpenRouter-compatible chat completion API. The client issues
// single-shot JSON requests; the stage layers retry and persistence on top.
package slidegen
