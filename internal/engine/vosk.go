package engine

import (
	"fmt"
	"os"
	"path/filepath"

	vosk "github.com/alphacep/vosk-api/go"
)

// Model wraps a loaded vosk acoustic model. Loading is expensive and happens
// once at startup; the model is shared by every recognizer created from it.
type Model struct {
	model *vosk.VoskModel
	name  string
	path  string
}

// LoadModel loads the model folder at path. It blocks until the native load
// completes and fails if the folder is missing or unreadable.
func LoadModel(path string) (*Model, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("model folder not found: %s", path)
	}
	m, err := vosk.NewModel(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return &Model{
		model: m,
		name:  filepath.Base(filepath.Clean(path)),
		path:  path,
	}, nil
}

func (m *Model) ModelName() string { return m.name }
func (m *Model) ModelPath() string { return m.path }

func (m *Model) NewRecognizer(sampleRate float64) (Recognizer, error) {
	rec, err := vosk.NewRecognizer(m.model, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("create recognizer at %.0f Hz: %w", sampleRate, err)
	}
	rec.SetWords(1)
	return &voskRecognizer{rec: rec}, nil
}

func (m *Model) Close() {
	m.model.Free()
}

type voskRecognizer struct {
	rec *vosk.VoskRecognizer
}

func (r *voskRecognizer) AcceptAudio(pcm []byte) bool {
	return r.rec.AcceptWaveform(pcm) != 0
}

func (r *voskRecognizer) Partial() (string, error) {
	return parsePartial([]byte(r.rec.PartialResult()))
}

func (r *voskRecognizer) Result() (Result, error) {
	return parseResult([]byte(r.rec.Result()))
}

func (r *voskRecognizer) FinalResult() (Result, error) {
	return parseResult([]byte(r.rec.FinalResult()))
}

func (r *voskRecognizer) Close() {
	r.rec.Free()
}
