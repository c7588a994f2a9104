package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/medreport/companion/internal/core/domain"
)

type findingRepoFake struct {
	docID    string
	findings []domain.Finding
	err      error
}

func (f *findingRepoFake) ReplaceForDocument(_ context.Context, documentID string, findings []domain.Finding) error {
	if f.err != nil {
		return f.err
	}
	f.docID = documentID
	f.findings = findings
	return nil
}

func (f *findingRepoFake) ListByDocument(context.Context, string) ([]domain.Finding, error) {
	return f.findings, nil
}

type parserFake struct {
	kind     domain.ReportType
	findings []domain.Finding
}

func (f *parserFake) DetectType(string) domain.ReportType { return f.kind }

func (f *parserFake) Parse(string, domain.ReportType) []domain.Finding { return f.findings }

type knowledgeFake struct {
	snippets []string
	err      error
}

func (f *knowledgeFake) Closest(context.Context, string, int) ([]string, error) {
	return f.snippets, f.err
}

type explainerFake struct {
	lastKB []string
	err    error
}

func (f *explainerFake) Explain(_ context.Context, finding domain.Finding, kbContext []string) (string, error) {
	f.lastKB = kbContext
	if f.err != nil {
		return "", f.err
	}
	return "Explained: " + finding.Name, nil
}

func TestAnalyzeByIDSuccess(t *testing.T) {
	repo := &repoFake{byID: indexedDoc("doc-1", "user-1")}
	findings := &findingRepoFake{}
	parser := &parserFake{
		kind: domain.ReportLaboratory,
		findings: []domain.Finding{
			{Type: domain.FindingLabValue, Name: "hemoglobin", Value: "11.2", Unit: "g/dl"},
			{Type: domain.FindingLabValue, Name: "hba1c", Value: "6.1", Unit: "%"},
		},
	}
	uc := NewAnalyzeReportUseCase(repo, findings, &extractorFake{text: "hemoglobin 11.2 g/dl"}, parser,
		&knowledgeFake{snippets: []string{"Low hemoglobin may indicate anemia."}}, &explainerFake{})

	if err := uc.AnalyzeByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}
	if repo.analyzedID != "doc-1" || repo.reportType != domain.ReportLaboratory {
		t.Fatalf("MarkAnalyzed(%s, %s) not recorded", repo.analyzedID, repo.reportType)
	}
	if findings.docID != "doc-1" || len(findings.findings) != 2 {
		t.Fatalf("findings not persisted: %+v", findings)
	}
	for _, f := range findings.findings {
		if f.ID == "" || f.Explanation == "" {
			t.Fatalf("finding missing id or explanation: %+v", f)
		}
	}
}

func TestAnalyzeByIDKnowledgeFailureIsBestEffort(t *testing.T) {
	repo := &repoFake{byID: indexedDoc("doc-1", "user-1")}
	findings := &findingRepoFake{}
	explainer := &explainerFake{}
	parser := &parserFake{kind: domain.ReportRadiology, findings: []domain.Finding{
		{Type: domain.FindingRadiology, Name: "joint effusion", Descriptor: "mild"},
	}}
	uc := NewAnalyzeReportUseCase(repo, findings, &extractorFake{text: "joint effusion"}, parser,
		&knowledgeFake{err: errors.New("embedder down")}, explainer)

	if err := uc.AnalyzeByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}
	if explainer.lastKB != nil {
		t.Fatalf("expected nil kb context after search failure, got %v", explainer.lastKB)
	}
}

func TestAnalyzeByIDExplainerErrorMarksFailed(t *testing.T) {
	repo := &repoFake{byID: indexedDoc("doc-1", "user-1")}
	parser := &parserFake{kind: domain.ReportLaboratory, findings: []domain.Finding{
		{Type: domain.FindingLabValue, Name: "tsh"},
	}}
	uc := NewAnalyzeReportUseCase(repo, &findingRepoFake{}, &extractorFake{text: "tsh 2.0"}, parser,
		&knowledgeFake{}, &explainerFake{err: errors.New("model missing")})

	if err := uc.AnalyzeByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statuses) == 0 || repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatalf("expected failed status, got %v", repo.statuses)
	}
}
