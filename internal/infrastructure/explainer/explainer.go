// Package explainer produces the patient-facing explanation for one
// extracted finding. The chat model gets the first shot; when it is
// unavailable the canned fallback text is used instead, so analysis
// never fails just because the model is down.
package explainer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
	"github.com/medreport/companion/internal/infrastructure/medparse"
)

type Explainer struct {
	generator ports.AnswerGenerator
	log       *slog.Logger
}

var _ ports.FindingExplainer = (*Explainer)(nil)

func New(generator ports.AnswerGenerator, log *slog.Logger) *Explainer {
	if log == nil {
		log = slog.Default()
	}
	return &Explainer{generator: generator, log: log}
}

func (e *Explainer) Explain(ctx context.Context, finding domain.Finding, kbContext []string) (string, error) {
	best := ""
	if len(kbContext) > 0 {
		best = kbContext[0]
	}

	prompt := medparse.ExplainPrompt(finding, best)
	text, err := e.generator.GenerateFromPrompt(ctx, prompt)
	if err != nil {
		e.log.Warn("chat model unavailable, using fallback explanation",
			"finding", finding.Name, "error", err)
		return medparse.FallbackExplanation(finding, best), nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return medparse.FallbackExplanation(finding, best), nil
	}
	return text, nil
}
