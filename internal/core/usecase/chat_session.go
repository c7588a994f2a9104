package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

const requestTimeout = 60 * time.Second

const (
	greetingUpload = "Hi! Upload a medical report and I'll help you make sense of it."
	greetingSeeded = "Welcome back! Your report %q is already analyzed. Ask me anything about it."
	noticeWorking  = "Analyzing your report. This can take a little while..."
)

// ChatSession mediates between user input, the picked file, and the two
// remote services for one conversation. It allows at most one in-flight
// operation and owns the transcript the UI renders.
//
// A ChatSession is not safe for concurrent use: the caller owns
// serialization, mirroring single-event-loop UI ownership. Calls made
// while an operation is pending are rejected, never queued.
type ChatSession struct {
	uploader ports.ReportUploader
	answerer ports.QuestionAnswerer

	log         transcript
	pending     bool
	hasDocument bool
	activeDoc   *domain.DocumentRef
	activeDocID string
}

func NewChatSession(uploader ports.ReportUploader, answerer ports.QuestionAnswerer) *ChatSession {
	return &ChatSession{
		uploader: uploader,
		answerer: answerer,
	}
}

// Initialize seeds the session. With a seed the session starts in the
// ready state, acknowledging the existing analysis; without one it starts
// empty, prompting for an upload.
func (s *ChatSession) Initialize(seed *domain.SessionSeed) {
	s.log.reset()
	s.pending = false
	s.hasDocument = false
	s.activeDoc = nil
	s.activeDocID = ""

	if seed != nil {
		doc := seed.Document
		s.hasDocument = true
		s.activeDoc = &doc
		s.log.append(domain.OriginAssistant, fmt.Sprintf(greetingSeeded, doc.Name))
		return
	}
	s.log.append(domain.OriginAssistant, greetingUpload)
}

// SubmitDocument uploads the picked file to the report service. Exactly
// one network call is made; a failure is terminal for the attempt and the
// user must re-invoke. The transient progress notice never survives the
// call, whatever the outcome.
func (s *ChatSession) SubmitDocument(ctx context.Context, doc domain.DocumentRef) error {
	if s.pending {
		return domain.WrapError(domain.ErrInvalidInput, "submit document", errors.New("operation already pending"))
	}

	s.pending = true
	notice := s.log.append(domain.OriginAssistant, noticeWorking)

	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	receipt, err := s.uploader.UploadReport(callCtx, doc)
	cancel()

	s.log.remove(notice.ID)
	s.pending = false

	if err != nil {
		s.log.append(domain.OriginAssistant, uploadFailureText(err))
		return fmt.Errorf("upload report: %w", err)
	}

	s.hasDocument = true
	s.activeDoc = &doc
	s.activeDocID = receipt.DocumentID
	s.log.append(domain.OriginAssistant, fmt.Sprintf(
		"Done! I read %q and indexed %d sections. What would you like to know?",
		doc.Name, receipt.ChunksCount,
	))
	return nil
}

// SubmitQuestion asks the query service about the active document. The
// user message is appended before the network round-trip so transcript
// causality holds even though the call is asynchronous from the UI's
// point of view.
func (s *ChatSession) SubmitQuestion(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return domain.WrapError(domain.ErrInvalidInput, "submit question", errors.New("empty question"))
	}
	if s.pending {
		// Ignored, no advisory message: the UI disables input while pending.
		return domain.WrapError(domain.ErrInvalidInput, "submit question", errors.New("operation already pending"))
	}
	if !s.hasDocument {
		s.log.append(domain.OriginAssistant, "Please upload a medical report first, then ask your question again.")
		return domain.WrapError(domain.ErrNoDocument, "submit question", errors.New("no usable document"))
	}

	s.log.append(domain.OriginUser, question)
	s.pending = true

	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	answer, err := s.answerer.AskQuestion(callCtx, s.activeDocID, question)
	cancel()

	s.pending = false

	if err != nil {
		s.log.append(domain.OriginAssistant, queryFailureText(err))
		return fmt.Errorf("ask question: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		s.log.append(domain.OriginAssistant, queryFailureText(domain.ErrEmptyAnswer))
		return domain.WrapError(domain.ErrEmptyAnswer, "ask question", errors.New("blank response body"))
	}

	s.log.append(domain.OriginAssistant, answer)
	return nil
}

// ResetDocument discards the active document and the whole transcript,
// leaving a single fresh upload prompt. No network call is made.
func (s *ChatSession) ResetDocument() {
	s.hasDocument = false
	s.activeDoc = nil
	s.activeDocID = ""
	s.pending = false
	s.log.reset()
	s.log.append(domain.OriginAssistant, greetingUpload)
}

func (s *ChatSession) Messages() []domain.Message { return s.log.snapshot() }

func (s *ChatSession) Pending() bool { return s.pending }

func (s *ChatSession) HasUsableDocument() bool { return s.hasDocument }

func (s *ChatSession) ActiveDocument() (domain.DocumentRef, bool) {
	if s.activeDoc == nil {
		return domain.DocumentRef{}, false
	}
	return *s.activeDoc, true
}

func uploadFailureText(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrTimedOut):
		return "The upload timed out. Please check your connection and try again."
	case domain.IsKind(err, domain.ErrUnreachable):
		return "I can't reach the analysis service right now. Please try again later."
	case domain.IsKind(err, domain.ErrTemporary):
		return "The analysis service is busy. Please try uploading again in a moment."
	}
	if reason := serverReason(err); reason != "" {
		return fmt.Sprintf("I couldn't process that report: %s", reason)
	}
	return "Something went wrong while processing your report. Please try again."
}

func queryFailureText(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrNoDocument):
		return "Please upload a medical report first, then ask your question again."
	case domain.IsKind(err, domain.ErrTimedOut):
		return "That question took too long to answer. Try again with a shorter question."
	case domain.IsKind(err, domain.ErrUnreachable):
		return "I can't reach the analysis service right now. Please try again later."
	case domain.IsKind(err, domain.ErrTemporary):
		return "The analysis service is busy. Please try again in a moment."
	case domain.IsKind(err, domain.ErrEmptyAnswer):
		return "I couldn't find an answer to that in your report. Try rephrasing the question."
	}
	if reason := serverReason(err); reason != "" {
		return reason
	}
	return "Something went wrong while answering. Please try again."
}

func serverReason(err error) string {
	var reasonErr *domain.ServerReason
	if errors.As(err, &reasonErr) {
		return reasonErr.Reason
	}
	return ""
}
