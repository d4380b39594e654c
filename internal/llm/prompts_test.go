package llm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alexanderveratry/Storm-gpt/internal/analysis"
	"github.com/alexanderveratry/Storm-gpt/internal/model"
)

var testQuestions = []string{
	"¿Qué es un fondo 130/30?",
	"¿En qué consiste la estrategia low-vol?",
	"¿Qué argumentos tenía Martingale?",
}

func priorAnswer(student string, answers map[int]model.AnswerAnalysis) model.ExtractedAnswer {
	return model.ExtractedAnswer{Student: student, Answers: answers}
}

func TestBuildRollingContextEmpty(t *testing.T) {
	if got := buildRollingContext(nil, 3); got != "" {
		t.Errorf("context for empty prior = %q, want empty", got)
	}
	prior := []model.ExtractedAnswer{priorAnswer("ana", nil)}
	if got := buildRollingContext(prior, 0); got != "" {
		t.Errorf("context for zero window = %q, want empty", got)
	}
}

func TestBuildRollingContextWindow(t *testing.T) {
	var prior []model.ExtractedAnswer
	for i := 1; i <= 5; i++ {
		prior = append(prior, priorAnswer(fmt.Sprintf("student-%d", i), map[int]model.AnswerAnalysis{
			1: {KeyPoints: []string{"punto"}},
		}))
	}

	ctx := buildRollingContext(prior, 3)
	for _, absent := range []string{"student-1", "student-2"} {
		if strings.Contains(ctx, absent) {
			t.Errorf("context should not mention %s", absent)
		}
	}
	for _, present := range []string{"student-3", "student-4", "student-5"} {
		if !strings.Contains(ctx, present) {
			t.Errorf("context should mention %s", present)
		}
	}
}

func TestBuildRollingContextRendering(t *testing.T) {
	tests := []struct {
		name    string
		answers map[int]model.AnswerAnalysis
		want    string
	}{
		{
			"first three key points",
			map[int]model.AnswerAnalysis{1: {KeyPoints: []string{"a", "b", "c", "d"}}},
			"Pregunta 1: a, b, c...",
		},
		{
			"answer excerpt when no key points",
			map[int]model.AnswerAnalysis{2: {FullAnswer: "una respuesta corta"}},
			"Pregunta 2: una respuesta corta...",
		},
		{
			"placeholder when nothing usable",
			map[int]model.AnswerAnalysis{3: {}},
			"Pregunta 3: [Análisis previo]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := buildRollingContext([]model.ExtractedAnswer{priorAnswer("ana", tt.answers)}, 3)
			if !strings.Contains(ctx, tt.want) {
				t.Errorf("context missing %q:\n%s", tt.want, ctx)
			}
		})
	}
}

func TestBuildRollingContextTruncatesExcerpt(t *testing.T) {
	long := strings.Repeat("á", 300)
	ctx := buildRollingContext([]model.ExtractedAnswer{
		priorAnswer("ana", map[int]model.AnswerAnalysis{1: {FullAnswer: long}}),
	}, 3)

	if strings.Contains(ctx, long) {
		t.Error("excerpt should be truncated to 200 runes")
	}
	if !strings.Contains(ctx, strings.Repeat("á", 200)+"...") {
		t.Error("expected 200-rune excerpt with ellipsis")
	}
}

func TestBuildRollingContextSkipsMissingQuestions(t *testing.T) {
	ctx := buildRollingContext([]model.ExtractedAnswer{
		priorAnswer("ana", map[int]model.AnswerAnalysis{2: {KeyPoints: []string{"k"}}}),
	}, 3)
	if strings.Contains(ctx, "Pregunta 1:") || strings.Contains(ctx, "Pregunta 3:") {
		t.Errorf("context mentions questions the prior analysis lacks:\n%s", ctx)
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	doc := model.Document{Student: "Ana Pérez", Text: "texto del examen de ana"}
	prompt := buildExtractionPrompt(doc, testQuestions, "CONTEXTO-MARCA")

	for _, want := range []string{
		"DOCUMENTO ACTUAL: Ana Pérez",
		"texto del examen de ana",
		"CONTEXTO-MARCA",
		testQuestions[0],
		testQuestions[2],
		`"pregunta_1"`,
		`"pregunta_3"`,
		"observaciones_generales",
		"calidad_estimada",
		"Responde SOLO con el JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildRubricPrompt(t *testing.T) {
	stats := []model.PatternStats{
		{
			Question:     testQuestions[0],
			TotalAnswers: 4,
			TopConcepts: []model.ConceptCount{
				{Concept: "c1", Count: 4}, {Concept: "c2", Count: 3}, {Concept: "c3", Count: 3},
				{Concept: "c4", Count: 2}, {Concept: "c5", Count: 1}, {Concept: "c6", Count: 1},
			},
		},
		{Question: testQuestions[1], TotalAnswers: 4},
		{Question: testQuestions[2], TotalAnswers: 4},
	}
	examples := []analysis.Example{
		{Question: 1, Student: "ana", Answer: "respuesta ejemplar"},
	}

	prompt := buildRubricPrompt(testQuestions, stats, examples)

	for _, want := range []string{
		"PAUTA DE CORRECCIÓN",
		"Total respuestas: 4",
		"c1: 4 veces",
		"c5: 1 veces",
		"Pregunta 1 - ana:",
		"respuesta ejemplar",
		"elementos_obligatorios",
		"puntaje_total",
		"notas_generales",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Only the top 5 concepts go into the prompt context.
	if strings.Contains(prompt, "c6") {
		t.Error("prompt should not include concepts beyond the top 5")
	}
}
