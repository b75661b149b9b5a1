package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names, fixed by the training pipeline.
const (
	alertModelFile = "modelo_alerta.json"
	typeModelFile  = "modelo_tipo_alerta.json"
)

// Features is the input record of the classification models. Field names
// match the columns the models were trained on.
type Features struct {
	TemperaturaCelsius float64 `json:"temperatura_celsius"`
	PresionBiogasKPa   float64 `json:"presion_biogas_kpa"`
	MQ4PPM             float64 `json:"mq4_ppm"`
	DiaProceso         int     `json:"dia_proceso"`
}

// Classifier is the external predictive model: given a feature record it
// returns the binary alert flag and the alert-type label.
type Classifier interface {
	Predict(f Features) (int, string, error)
}

type alertArtifact struct {
	Bias      float64            `json:"bias"`
	Weights   map[string]float64 `json:"weights"`
	Threshold float64            `json:"threshold"`
}

type typeClass struct {
	Label   string             `json:"label"`
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

type typeArtifact struct {
	Classes []typeClass `json:"classes"`
}

// FileClassifier evaluates the two exported model artifacts: a
// thresholded linear score for the alert flag and an argmax over
// per-class linear scores for the alert type.
type FileClassifier struct {
	alert alertArtifact
	types typeArtifact
}

// LoadClassifier reads both model artifacts from dir. Both files must be
// present and well formed; the caller decides how to degrade when they
// are not.
func LoadClassifier(dir string) (*FileClassifier, error) {
	var c FileClassifier
	if err := readArtifact(filepath.Join(dir, alertModelFile), &c.alert); err != nil {
		return nil, err
	}
	if err := readArtifact(filepath.Join(dir, typeModelFile), &c.types); err != nil {
		return nil, err
	}
	if len(c.types.Classes) == 0 {
		return nil, fmt.Errorf("artifact %s declares no classes", typeModelFile)
	}
	return &c, nil
}

func readArtifact(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model artifact: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode model artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Predict implements Classifier.
func (c *FileClassifier) Predict(f Features) (int, string, error) {
	values := f.byName()

	score := c.alert.Bias
	for name, w := range c.alert.Weights {
		v, ok := values[name]
		if !ok {
			return 0, "", fmt.Errorf("alert model references unknown feature %q", name)
		}
		score += w * v
	}
	flag := 0
	if score >= c.alert.Threshold {
		flag = 1
	}

	best := ""
	bestScore := 0.0
	for i, class := range c.types.Classes {
		s := class.Bias
		for name, w := range class.Weights {
			v, ok := values[name]
			if !ok {
				return 0, "", fmt.Errorf("type model class %q references unknown feature %q", class.Label, name)
			}
			s += w * v
		}
		if i == 0 || s > bestScore {
			best = class.Label
			bestScore = s
		}
	}
	if best == "" {
		return 0, "", errors.New("type model produced no label")
	}
	return flag, best, nil
}

func (f Features) byName() map[string]float64 {
	return map[string]float64{
		"temperatura_celsius": f.TemperaturaCelsius,
		"presion_biogas_kpa":  f.PresionBiogasKPa,
		"mq4_ppm":             f.MQ4PPM,
		"dia_proceso":         float64(f.DiaProceso),
	}
}
