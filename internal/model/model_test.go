package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalizeQuality(t *testing.T) {
	tests := []struct {
		in   string
		want QualityLabel
	}{
		{"alta", QualityHigh},
		{"media", QualityMedium},
		{"baja", QualityLow},
		{"ALTA", QualityHigh},
		{"  media ", QualityMedium},
		{"excelente", QualityUnknown},
		{"", QualityUnknown},
		{"N/A", QualityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeQuality(tt.in); got != tt.want {
				t.Errorf("NormalizeQuality(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnswerAnalysisDefensiveDecoding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want AnswerAnalysis
	}{
		{
			"well formed",
			`{"respuesta_completa":"texto","key_points":["a","b"],"conceptos_mencionados":["c"],"longitud_caracteres":120,"calidad_estimada":"alta"}`,
			AnswerAnalysis{FullAnswer: "texto", KeyPoints: []string{"a", "b"}, Concepts: []string{"c"}, Length: 120, Quality: QualityHigh},
		},
		{
			"missing key_points",
			`{"respuesta_completa":"texto","conceptos_mencionados":["c"],"calidad_estimada":"media"}`,
			AnswerAnalysis{FullAnswer: "texto", Concepts: []string{"c"}, Quality: QualityMedium},
		},
		{
			"key_points as string",
			`{"key_points":"un solo punto","calidad_estimada":"baja"}`,
			AnswerAnalysis{Quality: QualityLow},
		},
		{
			"length as float and string quality garbage",
			`{"longitud_caracteres":99.7,"calidad_estimada":42}`,
			AnswerAnalysis{Length: 99, Quality: QualityUnknown},
		},
		{
			"length as numeric string",
			`{"longitud_caracteres":"250"}`,
			AnswerAnalysis{Length: 250, Quality: QualityUnknown},
		},
		{
			"mixed-type key point list keeps usable entries",
			`{"key_points":["a",7,{"x":1},"b"]}`,
			AnswerAnalysis{KeyPoints: []string{"a", "7", "b"}, Quality: QualityUnknown},
		},
		{
			"empty object",
			`{}`,
			AnswerAnalysis{Quality: QualityUnknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got AnswerAnalysis
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got.FullAnswer != tt.want.FullAnswer {
				t.Errorf("FullAnswer = %q, want %q", got.FullAnswer, tt.want.FullAnswer)
			}
			if len(got.KeyPoints) != len(tt.want.KeyPoints) || (len(got.KeyPoints) > 0 && !reflect.DeepEqual(got.KeyPoints, tt.want.KeyPoints)) {
				t.Errorf("KeyPoints = %v, want %v", got.KeyPoints, tt.want.KeyPoints)
			}
			if len(got.Concepts) != len(tt.want.Concepts) || (len(got.Concepts) > 0 && !reflect.DeepEqual(got.Concepts, tt.want.Concepts)) {
				t.Errorf("Concepts = %v, want %v", got.Concepts, tt.want.Concepts)
			}
			if got.Length != tt.want.Length {
				t.Errorf("Length = %d, want %d", got.Length, tt.want.Length)
			}
			if got.Quality != tt.want.Quality {
				t.Errorf("Quality = %q, want %q", got.Quality, tt.want.Quality)
			}
		})
	}
}

func TestParseAnswerSet(t *testing.T) {
	t.Run("full response", func(t *testing.T) {
		body := `{
			"pregunta_1": {"respuesta_completa":"r1","key_points":["k1"],"conceptos_mencionados":["c1"],"longitud_caracteres":10,"calidad_estimada":"alta"},
			"pregunta_2": {"respuesta_completa":"r2","calidad_estimada":"media"},
			"pregunta_3": {"respuesta_completa":"r3","calidad_estimada":"baja"},
			"observaciones_generales": "similar a los anteriores"
		}`
		answers, obs, err := ParseAnswerSet([]byte(body))
		if err != nil {
			t.Fatalf("ParseAnswerSet: %v", err)
		}
		if len(answers) != 3 {
			t.Fatalf("expected 3 answers, got %d", len(answers))
		}
		if answers[1].Quality != QualityHigh {
			t.Errorf("question 1 quality = %q, want alta", answers[1].Quality)
		}
		if obs != "similar a los anteriores" {
			t.Errorf("observations = %q", obs)
		}
	})

	t.Run("missing and mangled questions are dropped", func(t *testing.T) {
		body := `{
			"pregunta_1": {"respuesta_completa":"r1"},
			"pregunta_2": "no es un objeto"
		}`
		answers, _, err := ParseAnswerSet([]byte(body))
		if err != nil {
			t.Fatalf("ParseAnswerSet: %v", err)
		}
		if _, ok := answers[1]; !ok {
			t.Error("question 1 should be present")
		}
		if _, ok := answers[2]; ok {
			t.Error("mangled question 2 should be dropped")
		}
		if _, ok := answers[3]; ok {
			t.Error("absent question 3 should be dropped")
		}
	})

	t.Run("missing key_points yields zero downstream count", func(t *testing.T) {
		body := `{"pregunta_3": {"respuesta_completa":"r3","conceptos_mencionados":["c"]}}`
		answers, _, err := ParseAnswerSet([]byte(body))
		if err != nil {
			t.Fatalf("ParseAnswerSet: %v", err)
		}
		if got := len(answers[3].KeyPoints); got != 0 {
			t.Errorf("key point count = %d, want 0", got)
		}
	})

	t.Run("non-object response fails", func(t *testing.T) {
		if _, _, err := ParseAnswerSet([]byte(`"sorry, I cannot do that"`)); err == nil {
			t.Error("expected error for non-object response")
		}
	})

	t.Run("invalid JSON fails", func(t *testing.T) {
		if _, _, err := ParseAnswerSet([]byte(`{"pregunta_1":`)); err == nil {
			t.Error("expected error for truncated JSON")
		}
	})
}

func TestLoadQuestions(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	t.Run("valid set", func(t *testing.T) {
		path := write("ok.json", `["q1","q2","q3"]`)
		questions, err := LoadQuestions(path)
		if err != nil {
			t.Fatalf("LoadQuestions: %v", err)
		}
		if !reflect.DeepEqual(questions, []string{"q1", "q2", "q3"}) {
			t.Errorf("questions = %v", questions)
		}
	})

	t.Run("wrong count", func(t *testing.T) {
		path := write("two.json", `["q1","q2"]`)
		if _, err := LoadQuestions(path); err == nil {
			t.Error("expected error for 2 questions")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadQuestions(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestQuestionKey(t *testing.T) {
	if got := QuestionKey(2); got != "pregunta_2" {
		t.Errorf("QuestionKey(2) = %q", got)
	}
}
