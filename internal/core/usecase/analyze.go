package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

const kbContextLimit = 2

// AnalyzeReportUseCase is the deferred half of the pipeline: detect the
// report kind, extract findings, and attach a patient-friendly explanation
// to each one.
type AnalyzeReportUseCase struct {
	repo      ports.DocumentRepository
	findings  ports.FindingRepository
	extractor ports.TextExtractor
	parser    ports.ReportParser
	knowledge ports.KnowledgeSearcher
	explainer ports.FindingExplainer
}

func NewAnalyzeReportUseCase(
	repo ports.DocumentRepository,
	findings ports.FindingRepository,
	extractor ports.TextExtractor,
	parser ports.ReportParser,
	knowledge ports.KnowledgeSearcher,
	explainer ports.FindingExplainer,
) *AnalyzeReportUseCase {
	return &AnalyzeReportUseCase{
		repo:      repo,
		findings:  findings,
		extractor: extractor,
		parser:    parser,
		knowledge: knowledge,
		explainer: explainer,
	}
}

func (uc *AnalyzeReportUseCase) AnalyzeByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusAnalyzing, ""); err != nil {
		return fmt.Errorf("set status=analyzing: %w", err)
	}

	reportType, err := uc.analyze(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.MarkAnalyzed(ctx, documentID, reportType); err != nil {
		return fmt.Errorf("mark analyzed: %w", err)
	}
	return nil
}

func (uc *AnalyzeReportUseCase) analyze(ctx context.Context, documentID string) (domain.ReportType, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.ReportUnknown, fmt.Errorf("fetch document: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.ReportUnknown, fmt.Errorf("extract text: %w", err)
	}

	reportType := uc.parser.DetectType(text)
	findings := uc.parser.Parse(text, reportType)

	now := time.Now().UTC()
	for i := range findings {
		findings[i].ID = uuid.NewString()
		findings[i].DocumentID = doc.ID
		findings[i].CreatedAt = now

		kbContext, err := uc.knowledge.Closest(ctx, findingSearchText(findings[i]), kbContextLimit)
		if err != nil {
			// Knowledge context is best-effort; the explainer falls back
			// to its canned text without it.
			kbContext = nil
		}

		explanation, err := uc.explainer.Explain(ctx, findings[i], kbContext)
		if err != nil {
			return domain.ReportUnknown, fmt.Errorf("explain finding %q: %w", findings[i].Name, err)
		}
		findings[i].Explanation = strings.TrimSpace(explanation)
	}

	if err := uc.findings.ReplaceForDocument(ctx, doc.ID, findings); err != nil {
		return domain.ReportUnknown, fmt.Errorf("persist findings: %w", err)
	}
	return reportType, nil
}

func findingSearchText(f domain.Finding) string {
	if f.Type == domain.FindingLabValue {
		return strings.TrimSpace(fmt.Sprintf("%s %s %s", f.Name, f.Value, f.Unit))
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", f.Name, f.Descriptor))
}
