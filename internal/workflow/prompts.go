package workflow

import (
	"fmt"
	"strings"

	"github.com/draftmill/draftmill-api/internal/domain"
)

// System instructions for the LLM steps. Kept as constants so the same
// payload always produces the same call, which is what keeps retries cheap to
// reason about.
const (
	brandAnalystSystem = `You are a brand analyst. From the raw website text you are given, produce one structured, long-form brand document in markdown. Cover: what the company does, its products and services, its audience, its tone of voice, and its positioning. Write only the document, no commentary.`

	chunkerSystem = `You split documents into self-contained chunks for a knowledge base. Each chunk must stand on its own: a reader should understand it without the surrounding text. Keep chunks between one paragraph and roughly 400 words. Return the chunks as a JSON array of strings.`

	distillerSystem = `You distill knowledge-base chunks. Rewrite the given chunk as dense, factual prose: keep every concrete fact, name and number, drop filler and marketing language. Write only the distilled text.`

	briefImproverSystem = `You improve content briefs. Rewrite the given brief so a writer can act on it directly, grounding it in the provided brand knowledge. Keep the author's intent; add concrete brand context where the knowledge supports it. Write only the improved brief.`

	metadataSystem = `You analyze finished articles and produce publication metadata. Base every field strictly on the article text.`

	qualitySystem = `You review finished articles. Score the overall quality from 0.0 to 10.0 considering clarity, structure, depth and usefulness to the stated audience.`
)

// chunkListPrompt asks for the chunk list of a document.
func chunkListPrompt(text string) string {
	return fmt.Sprintf("Split the following document into chunks.\n\nDocument:\n%s", text)
}

// distillPrompt asks for the distilled form of one chunk.
func distillPrompt(chunkText string) string {
	return fmt.Sprintf("Distill the following chunk.\n\nChunk:\n%s", chunkText)
}

// improveBriefPrompt asks for a rewritten brief grounded in retrieved
// knowledge. With no retrieved chunks the brief is still rewritten, just
// without grounding.
func improveBriefPrompt(description, purpose string, knowledge []string) string {
	var sb strings.Builder
	sb.WriteString("Improve this content brief.\n\n")
	fmt.Fprintf(&sb, "Purpose of the publication: %s\n\n", purpose)
	fmt.Fprintf(&sb, "Brief:\n%s\n", description)
	if len(knowledge) > 0 {
		sb.WriteString("\nBrand knowledge:\n")
		for _, k := range knowledge {
			fmt.Fprintf(&sb, "- %s\n", k)
		}
	}
	return sb.String()
}

// generateContentPrompt builds the article-generation prompt from the persona,
// the improved brief and the gathered context.
func generateContentPrompt(agent *domain.Agent, request domain.ContentRequest, improvedBrief, brandContext, searchContext string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write a %s.\n\n", request.Layout)
	fmt.Fprintf(&sb, "Brief:\n%s\n\n", improvedBrief)

	p := agent.Persona
	if p.Purpose != "" {
		fmt.Fprintf(&sb, "Purpose: %s\n", p.Purpose)
	}
	if p.Voice != "" {
		fmt.Fprintf(&sb, "Voice: %s\n", p.Voice)
	}
	if p.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s\n", p.Audience)
	}
	if p.Formatting != "" {
		fmt.Fprintf(&sb, "Formatting: %s\n", p.Formatting)
	}
	if p.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", p.Language)
	}
	if p.Brand != "" {
		fmt.Fprintf(&sb, "Brand notes: %s\n", p.Brand)
	}

	if brandContext != "" {
		fmt.Fprintf(&sb, "\nBrand knowledge:\n%s\n", brandContext)
	}
	if searchContext != "" {
		fmt.Fprintf(&sb, "\nCurrent context from the web:\n%s\n", searchContext)
	}

	sb.WriteString("\nWrite the article in markdown. Output only the article body.")
	return sb.String()
}

// metadataPrompt asks for publication metadata for an article body.
func metadataPrompt(body string) string {
	return fmt.Sprintf("Produce the publication metadata for this article.\n\nArticle:\n%s", body)
}

// qualityPrompt asks for a quality score for an article body.
func qualityPrompt(body string) string {
	return fmt.Sprintf("Score this article.\n\nArticle:\n%s", body)
}
