// Package report writes the run's artifacts: two spreadsheets, the rubric as
// JSON and the rubric as a readable text document. Each writer tolerates
// partial or missing upstream data and overwrites any previous output.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alexanderveratry/Storm-gpt/internal/model"
)

// Fixed output file names, matching what graders expect to find.
const (
	PatternsFile   = "1_analisis_patrones.xlsx"
	StudentsFile   = "2_analisis_por_estudiante.xlsx"
	RubricJSONFile = "3_pauta_correccion.json"
	RubricTextFile = "4_pauta_correccion.txt"
)

const notAvailable = "N/A"

// Exporter writes all artifacts into OutDir.
type Exporter struct {
	OutDir string
}

// WritePatterns writes the per-question summary spreadsheet: truncated
// question text, answer total, top-3 concepts with frequency, and the
// quality distribution as separate columns.
func (e Exporter) WritePatterns(stats []model.PatternStats) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"Pregunta", "Total Respuestas", "Conceptos Más Frecuentes", "Calidad Alta", "Calidad Media", "Calidad Baja"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, st := range stats {
		var frequent []string
		top := st.TopConcepts
		if len(top) > 3 {
			top = top[:3]
		}
		for _, cc := range top {
			frequent = append(frequent, fmt.Sprintf("%s (%dx)", cc.Concept, cc.Count))
		}
		concepts := strings.Join(frequent, ", ")
		if concepts == "" {
			concepts = notAvailable
		}

		row := []any{
			truncateRunes(st.Question, 50) + "...",
			st.TotalAnswers,
			concepts,
			st.QualityDist[model.QualityHigh],
			st.QualityDist[model.QualityMedium],
			st.QualityDist[model.QualityLow],
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	path := filepath.Join(e.OutDir, PatternsFile)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	slog.Info("exported pattern report", "path", path)
	return nil
}

// WriteStudentDetail writes one spreadsheet row per student per answered
// question: concepts, key-point count, answer length and quality label.
func (e Exporter) WriteStudentDetail(answers []model.ExtractedAnswer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"Estudiante", "Pregunta", "Conceptos Mencionados", "Num Puntos Clave", "Longitud", "Calidad"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rowNum := 2
	for _, doc := range answers {
		for n := 1; n <= model.QuestionCount; n++ {
			a, ok := doc.Answers[n]
			if !ok {
				continue
			}
			row := []any{
				doc.Student,
				n,
				strings.Join(a.Concepts, ", "),
				len(a.KeyPoints),
				a.Length,
				string(a.Quality),
			}
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	path := filepath.Join(e.OutDir, StudentsFile)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	slog.Info("exported student detail", "path", path)
	return nil
}

// WriteRubricJSON writes the rubric wire format, UTF-8 with two-space
// indentation, verbatim even when the rubric is partially or fully empty.
func (e Exporter) WriteRubricJSON(rubric *model.Rubric) error {
	if rubric == nil {
		rubric = &model.Rubric{}
	}

	path := filepath.Join(e.OutDir, RubricJSONFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rubric); err != nil {
		return fmt.Errorf("encode rubric: %w", err)
	}
	slog.Info("exported rubric JSON", "path", path)
	return nil
}

// WriteRubricText renders the rubric as a plain-text document with section
// banners per question, point-annotated elements, quality criteria and the
// ideal answer, plus a trailing general-notes section when present.
func (e Exporter) WriteRubricText(questions []string, rubric *model.Rubric) error {
	if rubric == nil {
		rubric = &model.Rubric{}
	}

	banner := strings.Repeat("=", 80)
	var sb strings.Builder
	sb.WriteString(banner + "\n")
	sb.WriteString("PAUTA DE CORRECCIÓN - EXAMEN DE FINANZAS\n")
	sb.WriteString(banner + "\n\n")

	for n := 1; n <= model.QuestionCount; n++ {
		q, ok := rubric.Questions[n]
		if !ok {
			continue
		}
		sb.WriteString("\n" + banner + "\n")
		fmt.Fprintf(&sb, "PREGUNTA %d\n", n)
		sb.WriteString(banner + "\n")
		if n <= len(questions) {
			sb.WriteString(questions[n-1] + "\n\n")
		}
		fmt.Fprintf(&sb, "PUNTAJE TOTAL: %d puntos\n\n", q.TotalPoints)

		sb.WriteString("ELEMENTOS OBLIGATORIOS:\n")
		writeElements(&sb, q.Required)

		if len(q.Optional) > 0 {
			sb.WriteString("\nELEMENTOS DESEABLES:\n")
			writeElements(&sb, q.Optional)
		}

		sb.WriteString("\nCRITERIOS DE CALIDAD:\n")
		for _, criterion := range q.QualityCriteria {
			sb.WriteString("  • " + criterion + "\n")
		}

		sb.WriteString("\nEJEMPLO DE RESPUESTA IDEAL:\n")
		ideal := q.IdealAnswer
		if ideal == "" {
			ideal = notAvailable
		}
		sb.WriteString(ideal + "\n\n")
	}

	if rubric.GeneralNotes != "" {
		sb.WriteString("\n" + banner + "\n")
		sb.WriteString("NOTAS GENERALES\n")
		sb.WriteString(banner + "\n")
		sb.WriteString(rubric.GeneralNotes + "\n")
	}

	path := filepath.Join(e.OutDir, RubricTextFile)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("exported rubric text", "path", path)
	return nil
}

func writeElements(sb *strings.Builder, elements []model.RubricElement) {
	for _, el := range elements {
		concept := el.Concept
		if concept == "" {
			concept = notAvailable
		}
		fmt.Fprintf(sb, "  [%d pts] %s\n", el.Points, concept)
		fmt.Fprintf(sb, "           %s\n\n", el.Description)
	}
}

func truncateRunes(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
