package core

// Resolve picks the action for a detected scam in chat: the chat's own
// action, then the global default, then ActionIgnore.
func Resolve(chat Chat, store *PolicyStore) Action {
	if action, ok := store.ChatAction(chat); ok {
		return action
	}
	if action, ok := store.DefaultAction(); ok {
		return action
	}
	return ActionIgnore
}
