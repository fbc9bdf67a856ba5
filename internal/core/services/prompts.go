package services

import (
	"strconv"

	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// defaultQuestionPrompt wraps the user's question before it is sent.
const defaultQuestionPrompt = "Answer this question about course materials: %s"

// defaultSystemPrompt returns the built-in system prompt for the given
// round budget.
func defaultSystemPrompt(maxToolRounds int) string {
	return `You are an assistant for course materials and educational content, with tools to search course content and look up course outlines.

Tool usage:
- Use the outline tool for questions about a course's structure, lesson list, link or instructor
- Use the content search tool only for questions about specific course content or detailed material
- You can make up to ` + strconv.Itoa(maxToolRounds) + ` sequential rounds of tool calls to gather information
- Use more than one search when comparing courses or lessons, answering multi-part questions, or following up on an earlier result
- If a search yields no results, say so plainly without offering alternatives

Answering:
- General knowledge questions: answer from existing knowledge without searching
- Course-specific questions: search first, then answer
- Give the answer only. Do not describe your search process or mention "the search results"

Keep answers brief, accurate and easy to follow, with an example where it helps understanding.`
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}
