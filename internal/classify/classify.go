// Package classify predicts the language of a code snippet. The default
// classifier is a TF-IDF vectorizer feeding a multinomial naive Bayes model,
// both trained out of band and loaded once from disk.
package classify

import (
	"context"
	"errors"
	"fmt"
)

// Classifier maps source text to one label. Implementations are read-only
// after construction and safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Model is a fitted multinomial naive Bayes model. Labels[i] names class i.
type Model struct {
	Labels         []string    `json:"labels"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

// NaiveBayes classifies text with a fitted vectorizer and model.
type NaiveBayes struct {
	vec   *Vectorizer
	model *Model
}

// New checks that vec and model agree on dimensions and that every class has
// a label, then returns a ready classifier.
func New(vec *Vectorizer, model *Model) (*NaiveBayes, error) {
	if vec == nil || model == nil {
		return nil, fmt.Errorf("%w: vectorizer and model are required", ErrArtifactsInvalid)
	}
	if err := checkShapes(vec, model); err != nil {
		return nil, err
	}
	return &NaiveBayes{vec: vec, model: model}, nil
}

// Labels returns the labels the model can emit, in class order.
func (c *NaiveBayes) Labels() []string {
	return append([]string(nil), c.model.Labels...)
}

// Classify returns the label of the highest scoring class. Ties resolve to the
// lowest class index.
func (c *NaiveBayes) Classify(_ context.Context, text string) (string, error) {
	x := c.vec.Transform(text)
	best := -1
	var bestScore float64
	for k, prior := range c.model.ClassLogPrior {
		score := prior
		row := c.model.FeatureLogProb[k]
		for idx, v := range x {
			score += v * row[idx]
		}
		if best < 0 || score > bestScore {
			best, bestScore = k, score
		}
	}
	return c.model.Labels[best], nil
}

func checkShapes(vec *Vectorizer, model *Model) error {
	dim := vec.Dim()
	if dim == 0 {
		return fmt.Errorf("%w: empty idf vector", ErrArtifactsInvalid)
	}
	for term, idx := range vec.Vocabulary {
		if idx < 0 || idx >= dim {
			return fmt.Errorf("%w: vocabulary term %q has index %d outside [0,%d)", ErrArtifactsInvalid, term, idx, dim)
		}
	}
	classes := len(model.ClassLogPrior)
	if classes == 0 {
		return fmt.Errorf("%w: model has no classes", ErrArtifactsInvalid)
	}
	if len(model.Labels) != classes {
		return fmt.Errorf("%w: %d labels for %d classes", ErrArtifactsInvalid, len(model.Labels), classes)
	}
	if len(model.FeatureLogProb) != classes {
		return fmt.Errorf("%w: %d feature rows for %d classes", ErrArtifactsInvalid, len(model.FeatureLogProb), classes)
	}
	for k, row := range model.FeatureLogProb {
		if len(row) != dim {
			return fmt.Errorf("%w: class %d has %d features, vectorizer has %d", ErrArtifactsInvalid, k, len(row), dim)
		}
		if model.Labels[k] == "" {
			return fmt.Errorf("%w: class %d has no label", ErrArtifactsInvalid, k)
		}
	}
	return nil
}

var (
	// ErrArtifactsMissing means a model artifact file does not exist.
	ErrArtifactsMissing = errors.New("classifier artifacts missing")
	// ErrArtifactsInvalid means an artifact exists but cannot be used.
	ErrArtifactsInvalid = errors.New("classifier artifacts invalid")
)
