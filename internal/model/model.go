package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// QuestionCount is the fixed number of exam questions. Every per-question
// structure in the pipeline is keyed by the same 1-based indices.
const QuestionCount = 3

// DefaultQuestions is the built-in finance exam question set, used when no
// questions file is given.
var DefaultQuestions = []string{
	"¿En qué consiste un fondo 130/30 fund? ¿Cuáles son las ventajas y desventajas de estos fondos con respecto a fondos 'long-only'?",
	"¿En qué consiste la estrategia low-vol? ¿Qué anomalía empírica da pie para implementar esta estrategia?",
	"¿Qué argumentos a favor tenía Martingale para continuar/expandir estrategias 130/30 + low_vol en ese entonces?",
}

// QuestionKey returns the wire key for a 1-based question index
// (e.g. "pregunta_2").
func QuestionKey(n int) string {
	return fmt.Sprintf("pregunta_%d", n)
}

// LoadQuestions reads a question set from a JSON file containing an array of
// exactly QuestionCount strings.
func LoadQuestions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var questions []string
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(questions) != QuestionCount {
		return nil, fmt.Errorf("%s: expected %d questions, got %d", path, QuestionCount, len(questions))
	}
	return questions, nil
}

// QualityLabel is the LLM's quality rating for one answer.
type QualityLabel string

const (
	QualityHigh    QualityLabel = "alta"
	QualityMedium  QualityLabel = "media"
	QualityLow     QualityLabel = "baja"
	QualityUnknown QualityLabel = "desconocida"
)

// NormalizeQuality maps a free-text label from the LLM onto the known set.
// Anything unrecognized becomes QualityUnknown rather than an error.
func NormalizeQuality(s string) QualityLabel {
	switch QualityLabel(strings.ToLower(strings.TrimSpace(s))) {
	case QualityHigh:
		return QualityHigh
	case QualityMedium:
		return QualityMedium
	case QualityLow:
		return QualityLow
	default:
		return QualityUnknown
	}
}

// Document is one student's Word document, immutable after loading.
type Document struct {
	Filename string
	Student  string // immediate parent folder name
	Folder   string
	Text     string
}

// AnswerAnalysis is the LLM's structured analysis of one answer. All fields
// are opportunistic: absent or wrong-typed wire values decode to zero values.
type AnswerAnalysis struct {
	FullAnswer string       `json:"respuesta_completa"`
	KeyPoints  []string     `json:"key_points"`
	Concepts   []string     `json:"conceptos_mencionados"`
	Length     int          `json:"longitud_caracteres"`
	Quality    QualityLabel `json:"calidad_estimada"`
}

// UnmarshalJSON decodes an analysis defensively: missing or mistyped fields
// become zero values, and the quality label is normalized.
func (a *AnswerAnalysis) UnmarshalJSON(data []byte) error {
	var raw struct {
		FullAnswer looseString  `json:"respuesta_completa"`
		KeyPoints  looseStrings `json:"key_points"`
		Concepts   looseStrings `json:"conceptos_mencionados"`
		Length     looseInt     `json:"longitud_caracteres"`
		Quality    looseString  `json:"calidad_estimada"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.FullAnswer = string(raw.FullAnswer)
	a.KeyPoints = raw.KeyPoints
	a.Concepts = raw.Concepts
	a.Length = int(raw.Length)
	a.Quality = NormalizeQuality(string(raw.Quality))
	return nil
}

// ExtractedAnswer is one document's analysis. Answers is keyed by 1-based
// question index; questions the LLM skipped or mangled are simply absent.
type ExtractedAnswer struct {
	Student      string
	Answers      map[int]AnswerAnalysis
	Observations string
}

// ParseAnswerSet decodes an extraction response body. Per-question decode
// failures drop that question only; the response as a whole fails only when
// it is not a JSON object.
func ParseAnswerSet(data []byte) (map[int]AnswerAnalysis, string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, "", fmt.Errorf("parse extraction response: %w", err)
	}

	answers := make(map[int]AnswerAnalysis, QuestionCount)
	for n := 1; n <= QuestionCount; n++ {
		rawAnswer, ok := raw[QuestionKey(n)]
		if !ok {
			continue
		}
		var a AnswerAnalysis
		if err := json.Unmarshal(rawAnswer, &a); err != nil {
			continue
		}
		answers[n] = a
	}

	var obs looseString
	if rawObs, ok := raw["observaciones_generales"]; ok {
		_ = json.Unmarshal(rawObs, &obs)
	}

	return answers, string(obs), nil
}

// ConceptCount is one concept with its cross-document frequency.
type ConceptCount struct {
	Concept string `json:"concepto"`
	Count   int    `json:"frecuencia"`
}

// PatternStats aggregates all answers to one question. TopConcepts is ordered
// by descending frequency, ties by first appearance.
type PatternStats struct {
	Question     string
	TotalAnswers int
	TopConcepts  []ConceptCount
	KeyPoints    []string
	QualityDist  map[QualityLabel]int
}
