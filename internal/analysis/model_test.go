package analysis

import (
	"os"
	"path/filepath"
	"testing"
)

func writeArtifacts(t *testing.T, dir, alert, types string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, alertModelFile), []byte(alert), 0o644); err != nil {
		t.Fatalf("write alert artifact: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, typeModelFile), []byte(types), 0o644); err != nil {
		t.Fatalf("write type artifact: %v", err)
	}
}

const testAlertArtifact = `{
  "bias": -1.0,
  "threshold": 0.0,
  "weights": {"temperatura_celsius": 0.1, "presion_biogas_kpa": 0.0, "mq4_ppm": 0.0, "dia_proceso": 0.0}
}`

const testTypeArtifact = `{
  "classes": [
    {"label": "normal", "bias": 1.0, "weights": {"temperatura_celsius": 0.0}},
    {"label": "temperatura_alta", "bias": -4.0, "weights": {"temperatura_celsius": 0.1}}
  ]
}`

func TestLoadClassifierMissingArtifacts(t *testing.T) {
	if _, err := LoadClassifier(t.TempDir()); err == nil {
		t.Fatal("expected error when artifacts are absent")
	}
}

func TestLoadClassifierRejectsEmptyTypeModel(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, testAlertArtifact, `{"classes": []}`)
	if _, err := LoadClassifier(dir); err == nil {
		t.Fatal("expected error for type model without classes")
	}
}

func TestFileClassifierPredict(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, testAlertArtifact, testTypeArtifact)
	clf, err := LoadClassifier(dir)
	if err != nil {
		t.Fatalf("load classifier: %v", err)
	}

	// Score = -1 + 0.1*temp: below threshold at 5 degrees, above at 50.
	flag, label, err := clf.Predict(Features{TemperaturaCelsius: 5})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if flag != 0 {
		t.Fatalf("expected no alert at low temperature, got flag %d", flag)
	}
	if label != "normal" {
		t.Fatalf("expected label normal, got %q", label)
	}

	flag, label, err = clf.Predict(Features{TemperaturaCelsius: 60})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if flag != 1 {
		t.Fatalf("expected alert at high temperature, got flag %d", flag)
	}
	if label != "temperatura_alta" {
		t.Fatalf("expected label temperatura_alta, got %q", label)
	}
}
