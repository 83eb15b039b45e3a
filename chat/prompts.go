package chat

import (
	"fmt"
	"strings"

	"github.com/fleetkit/knowledge/search"
)

const groundingPromptTemplate = `You are a maintenance knowledge assistant for vehicle fleet operators.
Answer the user's question using ONLY the sources provided below.

Rules:
- When a source contributes to your answer, cite it inline by its index, e.g. [Source 1].
- If the sources do not contain the answer, say so explicitly instead of guessing.
- Keep answers concise and specific; quote exact figures (torque values, intervals, part numbers) verbatim from the sources.
%s
Sources:

%s`

const externalContextTemplate = `
Additional context about the current situation (not from the knowledge base):

%s
`

// buildContextBlock renders the retrieved chunks as an indexed source list.
// Index order matches result rank so citations line up with the returned
// source list.
func buildContextBlock(results []*search.Result) string {
	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, result.DocumentTitle, result.Chunk.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildSystemPrompt assembles the grounding instruction from the retrieved
// sources and the caller-supplied external context, if any.
func buildSystemPrompt(results []*search.Result, externalContext string) string {
	external := ""
	if strings.TrimSpace(externalContext) != "" {
		external = fmt.Sprintf(externalContextTemplate, externalContext)
	}

	sources := "(no relevant sources were found)"
	if len(results) > 0 {
		sources = buildContextBlock(results)
	}

	return fmt.Sprintf(groundingPromptTemplate, external, sources)
}
