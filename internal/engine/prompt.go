package engine

import "strings"

// PromptTemplate wraps retrieved context and a question into a generation
// prompt.
type PromptTemplate struct {
	Key      string
	Name     string
	Template string
}

// Render substitutes the context and question placeholders.
func (p PromptTemplate) Render(context, question string) string {
	out := strings.ReplaceAll(p.Template, "{context}", context)
	return strings.ReplaceAll(out, "{question}", question)
}

// DefaultPromptKey is the production template, selected by prompt evaluation.
const DefaultPromptKey = "expert"

// Prompts holds the candidate prompt templates in evaluation order.
var Prompts = []PromptTemplate{
	{
		Key:  "detailed",
		Name: "Detailed Context-Based",
		Template: `Use the following pieces of context to answer the question at the end.
If you don't know the answer from the context, just say that you don't know.
Try to be as helpful as possible and provide a detailed answer based on the context.

Context: {context}

Question: {question}

Detailed Answer:`,
	},
	{
		Key:  "concise",
		Name: "Concise Direct",
		Template: `Answer the question based on the context below. Be clear and concise.
If the context doesn't contain the answer, say "I don't know based on the provided context."

Context: {context}

Question: {question}

Answer:`,
	},
	{
		Key:  "structured",
		Name: "Structured Response",
		Template: `Based on the context provided, answer the question following this structure:
1. Direct answer (2-3 sentences)
2. Key details (if applicable)
3. Additional context (if relevant)

If you cannot answer from the context, state "The provided context does not contain information to answer this question."

Context: {context}

Question: {question}

Structured Answer:`,
	},
	{
		Key:  "expert",
		Name: "Expert Technical Style",
		Template: `You are a technical expert assistant. Using the context provided, give a comprehensive technical answer.
Include relevant terminology, concepts, and explanations.
If information is not in the context, explicitly state what you don't know.

Context: {context}

Question: {question}

Expert Answer:`,
	},
}

// PromptByKey returns the named template, falling back to the default.
func PromptByKey(key string) PromptTemplate {
	for _, p := range Prompts {
		if p.Key == key {
			return p
		}
	}
	return PromptByKey(DefaultPromptKey)
}
