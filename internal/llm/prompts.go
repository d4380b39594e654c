package llm

import (
	"fmt"
	"strings"

	"github.com/alexanderveratry/Storm-gpt/internal/analysis"
	"github.com/alexanderveratry/Storm-gpt/internal/model"
)

// contextSummaryChars bounds the answer excerpt used when a prior analysis
// has no key points.
const contextSummaryChars = 200

// buildRollingContext renders a bounded summary of the most recent prior
// analyses. For each of their questions it shows the first 3 key points, or
// a truncated answer excerpt when key points are unavailable, or a
// placeholder when neither is usable.
func buildRollingContext(prior []model.ExtractedAnswer, window int) string {
	if len(prior) == 0 || window <= 0 {
		return ""
	}
	if len(prior) > window {
		prior = prior[len(prior)-window:]
	}

	var sb strings.Builder
	sb.WriteString("\n\n### CONTEXTO DE DOCUMENTOS ANTERIORES:\n")
	sb.WriteString("Has analizado los siguientes documentos previamente:\n\n")

	for _, prev := range prior {
		fmt.Fprintf(&sb, "Documento: %s\n", prev.Student)
		for n := 1; n <= model.QuestionCount; n++ {
			a, ok := prev.Answers[n]
			if !ok {
				continue
			}
			switch {
			case len(a.KeyPoints) > 0:
				points := a.KeyPoints
				if len(points) > 3 {
					points = points[:3]
				}
				fmt.Fprintf(&sb, "  Pregunta %d: %s...\n", n, strings.Join(points, ", "))
			case a.FullAnswer != "":
				fmt.Fprintf(&sb, "  Pregunta %d: %s...\n", n, truncateRunes(a.FullAnswer, contextSummaryChars))
			default:
				fmt.Fprintf(&sb, "  Pregunta %d: [Análisis previo]\n", n)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func buildExtractionPrompt(doc model.Document, questions []string, context string) string {
	var sb strings.Builder
	sb.WriteString("Eres un profesor analizando respuestas de estudiantes sobre finanzas. \n")
	sb.WriteString(context)
	sb.WriteString("\n\nDOCUMENTO ACTUAL: " + doc.Student + "\n\n")
	sb.WriteString("TEXTO COMPLETO:\n" + doc.Text + "\n\n---\n\n")

	sb.WriteString("PREGUNTAS DEL EXAMEN:\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}

	sb.WriteString("\n---\n\nTAREA:\n")
	sb.WriteString("Analiza este documento e identifica las respuestas a cada pregunta. Para cada pregunta, extrae:\n\n")
	sb.WriteString("1. Los puntos clave mencionados (conceptos, definiciones, ejemplos)\n")
	sb.WriteString("2. Identifica patrones o elementos recurrentes si ya has visto otros documentos\n")
	sb.WriteString("3. Nota similitudes o diferencias con documentos anteriores\n\n")
	sb.WriteString("Responde en el siguiente formato JSON estricto:\n\n{\n")
	for n := 1; n <= model.QuestionCount; n++ {
		fmt.Fprintf(&sb, "  %q: {\n", model.QuestionKey(n))
		sb.WriteString("    \"respuesta_completa\": \"Texto de la respuesta tal como aparece\",\n")
		sb.WriteString("    \"key_points\": [\"punto 1\", \"punto 2\", \"punto 3\"],\n")
		sb.WriteString("    \"conceptos_mencionados\": [\"concepto A\", \"concepto B\"],\n")
		sb.WriteString("    \"longitud_caracteres\": 0,\n")
		sb.WriteString("    \"calidad_estimada\": \"alta/media/baja\"\n")
		sb.WriteString("  },\n")
	}
	sb.WriteString("  \"observaciones_generales\": \"Comentarios sobre este documento comparado con anteriores\"\n}\n\n")
	sb.WriteString("IMPORTANTE: Responde SOLO con el JSON, sin texto adicional antes o después.")
	return sb.String()
}

func buildRubricPrompt(questions []string, stats []model.PatternStats, examples []analysis.Example) string {
	var sb strings.Builder
	sb.WriteString("Basándote en el análisis de todas las respuestas de estudiantes, crea una PAUTA DE CORRECCIÓN (rubric) para cada pregunta.\n\n")

	sb.WriteString("Análisis de todas las respuestas:\n\n")
	for _, st := range stats {
		sb.WriteString("\n" + st.Question + "\n")
		fmt.Fprintf(&sb, "Total respuestas: %d\n", st.TotalAnswers)
		sb.WriteString("Conceptos más mencionados:\n")
		top := st.TopConcepts
		if len(top) > 5 {
			top = top[:5]
		}
		for _, cc := range top {
			fmt.Fprintf(&sb, "  - %s: %d veces\n", cc.Concept, cc.Count)
		}
	}

	sb.WriteString("\n\nEjemplos de respuestas de alta calidad:\n")
	for _, ex := range examples {
		fmt.Fprintf(&sb, "\nPregunta %d - %s:\n%s...\n", ex.Question, ex.Student, ex.Answer)
	}

	sb.WriteString("\nPREGUNTAS:\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}

	sb.WriteString("\n---\n\nTAREA:\nCrea una pauta de corrección que incluya:\n")
	sb.WriteString("1. Los elementos/conceptos clave que DEBEN aparecer (basado en lo más frecuente)\n")
	sb.WriteString("2. Puntos por cada elemento\n")
	sb.WriteString("3. Criterios de calidad\n\n")
	sb.WriteString("Responde en formato JSON:\n\n{\n")
	for n := 1; n <= model.QuestionCount; n++ {
		fmt.Fprintf(&sb, "  %q: {\n", model.QuestionKey(n))
		sb.WriteString("    \"elementos_obligatorios\": [{\"concepto\": \"nombre del concepto\", \"puntos\": 0, \"descripcion\": \"qué debe incluir\"}],\n")
		sb.WriteString("    \"elementos_deseables\": [{\"concepto\": \"nombre del concepto\", \"puntos\": 0, \"descripcion\": \"qué debe incluir\"}],\n")
		sb.WriteString("    \"criterios_calidad\": [\"criterio 1\", \"criterio 2\"],\n")
		sb.WriteString("    \"puntaje_total\": 0,\n")
		sb.WriteString("    \"ejemplo_respuesta_ideal\": \"Texto de una respuesta que cumpla todos los criterios\"\n")
		sb.WriteString("  },\n")
	}
	sb.WriteString("  \"notas_generales\": \"Observaciones sobre la pauta\"\n}\n\n")
	sb.WriteString("Responde SOLO con JSON válido.")
	return sb.String()
}

func truncateRunes(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
