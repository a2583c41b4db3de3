package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Artifact file names inside the model directory.
const (
	VectorizerFile = "tfidf_vectorizer.json"
	ModelFile      = "naive_bayes_model.json"
)

const vectorizerSchema = `{
  "type": "object",
  "required": ["vocabulary", "idf"],
  "properties": {
    "vocabulary": {"type": "object", "additionalProperties": {"type": "integer", "minimum": 0}},
    "idf": {"type": "array", "minItems": 1, "items": {"type": "number"}},
    "lowercase": {"type": "boolean"},
    "strip_accents": {"enum": ["", "unicode"]},
    "sublinear_tf": {"type": "boolean"},
    "norm": {"enum": ["", "l1", "l2"]},
    "ngram_range": {"type": "array", "minItems": 2, "maxItems": 2, "items": {"type": "integer", "minimum": 1}}
  }
}`

const modelSchema = `{
  "type": "object",
  "required": ["labels", "class_log_prior", "feature_log_prob"],
  "properties": {
    "labels": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
    "class_log_prior": {"type": "array", "minItems": 1, "items": {"type": "number"}},
    "feature_log_prob": {"type": "array", "minItems": 1, "items": {"type": "array", "items": {"type": "number"}}}
  }
}`

var (
	compiledVectorizer = mustCompile("vectorizer.json", vectorizerSchema)
	compiledModel      = mustCompile("model.json", modelSchema)
)

// Load reads both artifacts from dir. Call it once at startup and share the
// result; a failed load should be reported once, not retried per snippet.
func Load(dir string) (*NaiveBayes, error) {
	return LoadFiles(filepath.Join(dir, VectorizerFile), filepath.Join(dir, ModelFile))
}

// LoadFiles reads the vectorizer and model from explicit paths.
func LoadFiles(vectorizerPath, modelPath string) (*NaiveBayes, error) {
	var vec Vectorizer
	if err := readArtifact(vectorizerPath, compiledVectorizer, &vec); err != nil {
		return nil, err
	}
	var model Model
	if err := readArtifact(modelPath, compiledModel, &model); err != nil {
		return nil, err
	}
	return New(&vec, &model)
}

func readArtifact(path string, schema *jsonschema.Schema, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactsMissing, path)
		}
		return fmt.Errorf("%w: read %s: %v", ErrArtifactsInvalid, path, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrArtifactsInvalid, path, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactsInvalid, path, err)
	}
	if err := json.Unmarshal(b, into); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrArtifactsInvalid, path, err)
	}
	return nil
}

func mustCompile(name, schema string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		panic(fmt.Sprintf("classify: parse %s schema: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("classify: add %s schema: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("classify: compile %s schema: %v", name, err))
	}
	return s
}
