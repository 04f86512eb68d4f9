// File path: internal/engine/prompts.go
package engine

import "fmt"

const systemPrompt = `You are a helpful assistant specializing in Houston nonprofit organizations.
You have access to detailed information about nonprofits including their missions, programs,
financial data, and activities. Provide accurate, helpful responses based on the provided context.

When discussing financial information, format numbers clearly (e.g., $1.2M for millions).
Focus on being informative and actionable for users interested in Houston nonprofits.`

func userPrompt(query, contextText string) string {
	return fmt.Sprintf(`Based on the following information about Houston nonprofits, please answer this question: %s

Context:
%s

Please provide a comprehensive answer based on the nonprofit data provided. If the context doesn't contain enough information to fully answer the question, mention what additional information might be helpful.`, query, contextText)
}

const (
	noInformationAnswer = "I don't have enough information about Houston nonprofits to answer that question. Please try a different query."

	degradedAnswer = "I apologize, but I encountered an error while processing your question about Houston nonprofits. Please try rephrasing your question."

	healthPrompt = "Say 'healthy' if you can respond."
)

// Suggestions returns sample questions surfaced to new users.
func Suggestions() []string {
	return []string{
		"What are the largest nonprofits in Houston?",
		"Tell me about organizations helping with food insecurity",
		"Which nonprofits focus on education in Houston?",
		"Show me health-related nonprofits with their financial information",
		"What organizations work with homeless populations?",
		"Find nonprofits focused on arts and culture",
		"Which organizations have the highest revenue?",
		"Tell me about environmental nonprofits in Houston",
		"What nonprofits serve children and youth?",
		"Show me organizations working on community development",
	}
}
