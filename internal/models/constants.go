package models

const (
	// AnswerUnavailable is returned in an answer slot when generation for
	// that question failed after retries. Callers can match it exactly.
	AnswerUnavailable = "[unanswered] The model could not produce an answer for this question."

	// NoAnswerInContext is what the model is instructed to say when the
	// retrieved context does not contain the answer.
	NoAnswerInContext = "This information is not available in the provided document."
)

var (
	SinglePromptTemplate = `You are an assistant that answers questions using ONLY the provided document context.

INSTRUCTIONS:
1. Answer the question using only information from the context.
2. Write a direct answer in plain text, no markdown or bullet points.
3. Keep the answer concise but complete.
4. If the context does not contain the answer, say "` + NoAnswerInContext + `"

CONTEXT:
%s

QUESTION: %s

ANSWER:`

	BatchPromptTemplate = `You are an assistant that answers questions using ONLY the provided document context.

INSTRUCTIONS:
1. Answer ALL questions using only information from the context.
2. Format the response as labeled answers: A1: [answer] A2: [answer] etc., one per line, matching the question labels.
3. Write direct answers in plain text, no markdown or bullet points.
4. Keep answers concise but complete.
5. If the context does not contain an answer, say "` + NoAnswerInContext + `"

CONTEXT:
%s

QUESTIONS:
%s

ANSWERS (one labeled answer per question):`
)
