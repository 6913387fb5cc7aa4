package engine

import (
	"encoding/json"
	"fmt"
)

const Name = "vosk"

// Word is one recognized word on a final result, with timings in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Conf  float64 `json:"conf,omitempty"`
}

// Result is a finalized utterance.
type Result struct {
	Text  string `json:"text"`
	Words []Word `json:"result,omitempty"`
}

// Recognizer decodes one audio stream. Implementations are not safe for
// concurrent use; each session owns exactly one.
type Recognizer interface {
	// AcceptAudio feeds little-endian 16-bit mono PCM. It returns true when
	// the decoder crossed an utterance boundary and a final result is ready.
	AcceptAudio(pcm []byte) bool

	// Partial returns the in-progress hypothesis, possibly empty.
	Partial() (string, error)

	// Result returns the finalized utterance after AcceptAudio reported a
	// boundary.
	Result() (Result, error)

	// FinalResult flushes buffered audio and returns whatever the decoder
	// can still produce. The recognizer must not be fed afterwards.
	FinalResult() (Result, error)

	// Close releases the native decoder. Safe to call once.
	Close()
}

// Factory creates recognizers against a loaded model.
type Factory interface {
	NewRecognizer(sampleRate float64) (Recognizer, error)
	ModelName() string
	ModelPath() string
}

func parsePartial(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var p struct {
		Partial string `json:"partial"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("parse partial result: %w", err)
	}
	return p.Partial, nil
}

func parseResult(raw []byte) (Result, error) {
	if len(raw) == 0 {
		return Result{}, nil
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{}, fmt.Errorf("parse final result: %w", err)
	}
	return r, nil
}
