package chat

import "github.com/uiaudit/lenny/internal/domain"

// SystemPrompt is the assistant persona.
const SystemPrompt = `You are Lenny, an internal AccuLynx assistant helping the team audit and understand where actions can be taken in the app.

Your PRIMARY job is to help identify WHERE in the AccuLynx UI specific actions, buttons, or features exist. Focus on:
- Which PAGE contains the action
- Which COMPONENT (modal, drawer, dropdown) the action is in
- The exact path/hierarchy: Page → Component → Action

When answering questions about where something is or how to do something:
1. List ALL the places where that action/feature exists
2. Be specific about the UI path (e.g., "Job Overview page → A/R Details section → Take Payment button")
3. Mention if an action opens a drawer/modal or navigates to another page
4. Note if the same action appears in multiple places

This is for internal auditing - be thorough and specific about UI locations, not general explanations.`

// contextPreamble introduces the grounding context to the model.
const contextPreamble = "Here's what I found in the AccuLynx documentation:\n\n"

// DefaultHistoryTurns is how many prior turns are replayed to the model.
const DefaultHistoryTurns = 6

// BuildMessages assembles the model conversation: persona, grounding context,
// the last historyTurns prior turns oldest first, then the current message.
// Turns without a role are sent as user turns.
func BuildMessages(
	systemPrompt, groundingContext string, history []domain.ChatMessage, message string, historyTurns int,
) []domain.ChatMessage {
	if historyTurns >= 0 && len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	msgs := make([]domain.ChatMessage, 0, len(history)+3)
	msgs = append(msgs,
		domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt},
		domain.ChatMessage{Role: domain.RoleSystem, Content: contextPreamble + groundingContext},
	)
	for _, turn := range history {
		role := turn.Role
		if role == "" {
			role = domain.RoleUser
		}
		msgs = append(msgs, domain.ChatMessage{Role: role, Content: turn.Content})
	}
	return append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: message})
}
