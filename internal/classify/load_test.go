package classify

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifacts(t *testing.T, dir string, vec any, model any) {
	t.Helper()
	for name, v := range map[string]any{VectorizerFile: vec, ModelFile: model} {
		if v == nil {
			continue
		}
		var b []byte
		if s, ok := v.(string); ok {
			b = []byte(s)
		} else {
			var err error
			if b, err = json.Marshal(v); err != nil {
				t.Fatalf("marshal %s: %v", name, err)
			}
		}
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	vec, model := testArtifacts()
	writeArtifacts(t, dir, vec, model)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := c.Classify(context.Background(), "echo hello")
	if err != nil || got != "sh" {
		t.Fatalf("classify = %q, %v", got, err)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); !errors.Is(err, ErrArtifactsMissing) {
		t.Fatalf("err = %v, want ErrArtifactsMissing", err)
	}
	vec, _ := testArtifacts()
	writeArtifacts(t, dir, vec, nil)
	if _, err := Load(dir); !errors.Is(err, ErrArtifactsMissing) {
		t.Fatalf("missing model: err = %v, want ErrArtifactsMissing", err)
	}
}

func TestLoad_InvalidArtifacts(t *testing.T) {
	vec, model := testArtifacts()
	tests := []struct {
		name  string
		vec   any
		model any
	}{
		{"not json", "{{{", model},
		{"vocabulary wrong type", `{"vocabulary": ["print"], "idf": [1]}`, model},
		{"unknown norm", `{"vocabulary": {"aa": 0}, "idf": [1], "norm": "l3"}`, model},
		{"labels missing", vec, `{"class_log_prior": [0], "feature_log_prob": [[0]]}`},
		{"empty label", vec, `{"labels": [""], "class_log_prior": [0], "feature_log_prob": [[0,0,0,0,0,0]]}`},
		{"shape mismatch", vec, `{"labels": ["python"], "class_log_prior": [0], "feature_log_prob": [[0]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeArtifacts(t, dir, tt.vec, tt.model)
			_, err := Load(dir)
			if !errors.Is(err, ErrArtifactsInvalid) {
				t.Fatalf("err = %v, want ErrArtifactsInvalid", err)
			}
		})
	}
}
