// Package generation defines the boundary between the orchestration
// core and the external AI services that produce artifacts: summaries
// and chapter text (Gemini), narration audio and cover images (OpenAI
// plus blob storage), and queued question-set jobs produced by an
// out-of-band worker. The core only ever sees the Service interface and
// its done/accepted response shapes.
package generation
