// Package gemini implements the text generation backend on Google's
// Gemini API. It produces unit summaries and study chapters inline; the
// orchestrator treats its responses as immediately done.
package gemini
