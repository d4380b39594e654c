package model

import (
	"encoding/json"
	"fmt"
)

// RubricElement is one scored item in a rubric.
type RubricElement struct {
	Concept     string `json:"concepto"`
	Points      int    `json:"puntos"`
	Description string `json:"descripcion"`
}

// UnmarshalJSON tolerates fractional or string point values from the LLM.
func (e *RubricElement) UnmarshalJSON(data []byte) error {
	var raw struct {
		Concept     looseString `json:"concepto"`
		Points      looseInt    `json:"puntos"`
		Description looseString `json:"descripcion"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Concept = string(raw.Concept)
	e.Points = int(raw.Points)
	e.Description = string(raw.Description)
	return nil
}

// QuestionRubric is the grading scheme for one question.
type QuestionRubric struct {
	Required        []RubricElement `json:"elementos_obligatorios"`
	Optional        []RubricElement `json:"elementos_deseables"`
	QualityCriteria []string        `json:"criterios_calidad"`
	TotalPoints     int             `json:"puntaje_total"`
	IdealAnswer     string          `json:"ejemplo_respuesta_ideal"`
}

// UnmarshalJSON decodes a question rubric defensively, dropping mistyped
// fields instead of failing.
func (q *QuestionRubric) UnmarshalJSON(data []byte) error {
	var raw struct {
		Required        []json.RawMessage `json:"elementos_obligatorios"`
		Optional        []json.RawMessage `json:"elementos_deseables"`
		QualityCriteria looseStrings      `json:"criterios_calidad"`
		TotalPoints     looseInt          `json:"puntaje_total"`
		IdealAnswer     looseString       `json:"ejemplo_respuesta_ideal"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Required = decodeElements(raw.Required)
	q.Optional = decodeElements(raw.Optional)
	q.QualityCriteria = raw.QualityCriteria
	q.TotalPoints = int(raw.TotalPoints)
	q.IdealAnswer = string(raw.IdealAnswer)
	return nil
}

func decodeElements(items []json.RawMessage) []RubricElement {
	if len(items) == 0 {
		return nil
	}
	out := make([]RubricElement, 0, len(items))
	for _, item := range items {
		var e RubricElement
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Rubric is the full generated grading scheme. Questions is keyed by 1-based
// question index; an empty rubric (failed generation) has no entries.
type Rubric struct {
	Questions    map[int]QuestionRubric
	GeneralNotes string
}

// IsEmpty reports whether generation produced nothing usable.
func (r *Rubric) IsEmpty() bool {
	return r == nil || (len(r.Questions) == 0 && r.GeneralNotes == "")
}

// MarshalJSON writes the wire format: pregunta_N keys plus notas_generales.
func (r Rubric) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Questions)+1)
	for n, q := range r.Questions {
		out[QuestionKey(n)] = q
	}
	if r.GeneralNotes != "" {
		out["notas_generales"] = r.GeneralNotes
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the wire format, skipping questions that fail to
// decode as objects.
func (r *Rubric) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse rubric: %w", err)
	}

	r.Questions = make(map[int]QuestionRubric)
	for n := 1; n <= QuestionCount; n++ {
		rawQ, ok := raw[QuestionKey(n)]
		if !ok {
			continue
		}
		var q QuestionRubric
		if err := json.Unmarshal(rawQ, &q); err != nil {
			continue
		}
		r.Questions[n] = q
	}

	var notes looseString
	if rawNotes, ok := raw["notas_generales"]; ok {
		_ = json.Unmarshal(rawNotes, &notes)
	}
	r.GeneralNotes = string(notes)
	return nil
}
