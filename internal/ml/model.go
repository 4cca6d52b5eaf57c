package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/selimozcann/LinkGuard/internal/logging"
)

const (
	FeatureCount = 12
	HiddenUnits  = 4
)

// ErrModelShape is returned when a model file has the wrong dimensions.
var ErrModelShape = errors.New("ml: model shape mismatch")

// Model is a one-hidden-layer network: ReLU hidden units, sigmoid output.
type Model struct {
	W1 [][]float64 `json:"w1"` // HiddenUnits x FeatureCount
	B1 []float64   `json:"b1"`
	W2 []float64   `json:"w2"`
	B2 float64     `json:"b2"`
}

// DefaultModel carries hand-set weights. Unit 0 reacts to lures (keywords,
// brand-adjacent hosts, hyphens, subdomains), unit 1 to raw IPs and
// credentials, unit 2 to long or high-entropy URLs, unit 3 to a well-known
// TLD and pulls the output down.
func DefaultModel() *Model {
	return &Model{
		W1: [][]float64{
			{0, 0, 0.5, 0, 0, 0, 0, 0, 0.8, 0.3, 0, 1.5},
			{0, 0, 0, 1.0, 2.0, 0.6, 0, 0, 0, 0, 0, 0},
			{0.6, 0.4, 0, 0, 0, 0, 0.5, 0.4, 0, 0, 0, 0},
			{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1.0, 0},
		},
		B1: []float64{0, 0, 0, 0},
		W2: []float64{2.5, 2.5, 1.5, -1.0},
		B2: -3.0,
	}
}

func (m *Model) validate() error {
	if len(m.W1) != HiddenUnits || len(m.B1) != HiddenUnits || len(m.W2) != HiddenUnits {
		return ErrModelShape
	}
	for _, row := range m.W1 {
		if len(row) != FeatureCount {
			return ErrModelShape
		}
	}
	return nil
}

// Forward returns the phishing probability for x.
func (m *Model) Forward(x [FeatureCount]float64) float64 {
	z := m.B2
	for i, row := range m.W1 {
		h := m.B1[i]
		for j, w := range row {
			h += w * x[j]
		}
		if h > 0 {
			z += m.W2[i] * h
		}
	}
	return 1 / (1 + math.Exp(-z))
}

// LoadModel reads a JSON model from path.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("model %q: %w", path, err)
	}
	return &m, nil
}

// LoadOrDefault loads path and falls back to DefaultModel on any error. An
// empty path selects the default silently.
func LoadOrDefault(path string, logger *slog.Logger) *Model {
	if path == "" {
		return DefaultModel()
	}
	m, err := LoadModel(path)
	if err != nil {
		logging.OrDefault(logger).Warn("using default model", "path", path, "err", err)
		return DefaultModel()
	}
	return m
}
