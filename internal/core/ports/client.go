package ports

import (
	"context"

	"github.com/medreport/companion/internal/core/domain"
)

// ReportUploader is the chat client's view of the report service.
type ReportUploader interface {
	UploadReport(ctx context.Context, doc domain.DocumentRef) (*domain.UploadReceipt, error)
}

// QuestionAnswerer is the chat client's view of the query service.
// documentID may be empty for backends that resolve the caller's latest
// upload themselves.
type QuestionAnswerer interface {
	AskQuestion(ctx context.Context, documentID, question string) (string, error)
}

// DocumentSource supplies a user-picked file. A false second return means
// the user cancelled; cancellation is not an error and leaves state
// unchanged.
type DocumentSource interface {
	PickDocument(ctx context.Context) (domain.DocumentRef, bool, error)
	PickImage(ctx context.Context) (domain.DocumentRef, bool, error)
}

// AuthState describes the signed-in user, if any.
type AuthState struct {
	UserID string
	Email  string
}

// Authenticator is the black-box authentication collaborator used by the
// surrounding screens, never by the chat session itself.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (AuthState, error)
	SignUp(ctx context.Context, email, password string) (AuthState, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (AuthState, error)
	OnAuthStateChanged(callback func(AuthState)) (unsubscribe func())
}
