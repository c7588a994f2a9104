package ollama

import (
	"fmt"
	"strings"

	"github.com/medreport/companion/internal/core/domain"
)

func buildAnswerPrompt(question string, chunks []domain.RetrievedChunk) string {
	var contextBuilder strings.Builder
	for _, chunk := range chunks {
		contextBuilder.WriteString(chunk.Text)
		contextBuilder.WriteString("\n\n")
	}

	return fmt.Sprintf(`Based on the following medical document context, please answer the question. Be specific and cite relevant information from the context.

Context:
%s
Question: %s

Answer:`, contextBuilder.String(), question)
}
