package explainer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medreport/companion/internal/core/domain"
)

type generatorFake struct {
	response   string
	err        error
	lastPrompt string
}

func (g *generatorFake) GenerateAnswer(context.Context, string, []domain.RetrievedChunk) (string, error) {
	return g.response, g.err
}

func (g *generatorFake) GenerateFromPrompt(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	return g.response, g.err
}

func TestExplainUsesModelAnswer(t *testing.T) {
	gen := &generatorFake{response: "Your hemoglobin is in the normal range."}
	e := New(gen, nil)

	finding := domain.Finding{Type: domain.FindingLabValue, Name: "hemoglobin", Value: "13.5", Unit: "g/dl"}
	got, err := e.Explain(context.Background(), finding, []string{"hemoglobin carries oxygen"})
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "Your hemoglobin is in the normal range." {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(gen.lastPrompt, "hemoglobin carries oxygen") {
		t.Fatalf("prompt missing knowledge context: %q", gen.lastPrompt)
	}
}

func TestExplainFallsBackWhenModelDown(t *testing.T) {
	gen := &generatorFake{err: errors.New("connection refused")}
	e := New(gen, nil)

	finding := domain.Finding{Type: domain.FindingLabValue, Name: "hba1c", Value: "6.2", Unit: "%"}
	got, err := e.Explain(context.Background(), finding, nil)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if !strings.Contains(got, "6.2") {
		t.Fatalf("fallback missing value: %q", got)
	}
}

func TestExplainFallsBackOnBlankAnswer(t *testing.T) {
	gen := &generatorFake{response: "   "}
	e := New(gen, nil)

	finding := domain.Finding{Type: domain.FindingRadiology, Name: "menisci", Descriptor: "normal and intact"}
	got, err := e.Explain(context.Background(), finding, nil)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got == "" {
		t.Fatal("expected fallback text for blank model answer")
	}
}
