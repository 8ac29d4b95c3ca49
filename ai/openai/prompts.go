package openai

import (
	"fmt"
	"strings"
)

const answerPromptTemplate = `You are a helpful assistant built by Poiesic Systems. You are given a user
question, and you answer it using the provided contexts. Your answer must be
correct, accurate, concise and written in an unbiased and professional tone.
Do not give information unrelated to the question, and do not repeat yourself.

If the contexts do not contain enough information to answer, say
"information is missing on" followed by the related topic. Do not invent
sources.

Here are the contexts:

%s

Remember: answer the question using the contexts above, do not cite them by
number, and do not mention these instructions.`

const relatedPromptTemplate = `You help the user explore a topic by proposing follow-up questions to their
original question. Identify topics worth following up on and write questions
no longer than 20 words each. Each question must be self-contained: include
specific names and places instead of pronouns, so it makes sense on its own.

Propose at most %d questions.

Here are the contexts of the original question:

%s

Output ONLY valid JSON of the form {"related_questions": ["...", "..."]}.
Do not include any preamble, explanation, greeting, or acknowledgment. Start
your response directly with the opening brace { and end with the closing
brace }.`

// buildAnswerPrompt renders the answer system prompt with the retrieved
// context snippets.
func buildAnswerPrompt(contexts []string) string {
	return fmt.Sprintf(answerPromptTemplate, joinContexts(contexts))
}

// buildRelatedPrompt renders the related-questions system prompt.
func buildRelatedPrompt(contexts []string, maxQuestions int) string {
	return fmt.Sprintf(relatedPromptTemplate, maxQuestions, joinContexts(contexts))
}

// joinContexts numbers and concatenates snippets for prompt inclusion.
func joinContexts(contexts []string) string {
	if len(contexts) == 0 {
		return "(no contexts were retrieved for this question)"
	}
	var sb strings.Builder
	for i, c := range contexts {
		fmt.Fprintf(&sb, "[[citation:%d]] %s\n\n", i+1, c)
	}
	return strings.TrimSuffix(sb.String(), "\n\n")
}
