package core

// ChatDefinition is a chat entry as declared in the configuration
type ChatDefinition struct {
	Username string
	LogID    *int64
	Action   *string
}

// PolicyDefinition is the raw moderation policy before validation
type PolicyDefinition struct {
	DefaultAction *string
	Chats         []ChatDefinition
	KeywordGroups [][]string
}

type chatPolicy struct {
	logID     *int64
	action    Action
	hasAction bool
}

// PolicyStore holds the validated moderation policy. It is never modified
// after NewPolicyStore returns and may be shared by any number of goroutines.
type PolicyStore struct {
	chats            map[string]chatPolicy
	defaultAction    Action
	hasDefaultAction bool
	groups           []KeywordGroup
}

// NewPolicyStore validates def and builds an immutable policy store
func NewPolicyStore(def PolicyDefinition) (*PolicyStore, error) {
	if len(def.Chats) == 0 {
		return nil, &ConfigError{Kind: ConfigNoChats}
	}
	if len(def.KeywordGroups) == 0 {
		return nil, &ConfigError{Kind: ConfigNoKeywordGroups}
	}

	store := &PolicyStore{
		chats:  make(map[string]chatPolicy, len(def.Chats)),
		groups: make([]KeywordGroup, 0, len(def.KeywordGroups)),
	}

	if def.DefaultAction != nil {
		action, err := ParseAction(*def.DefaultAction)
		if err != nil {
			return nil, err
		}
		store.defaultAction = action
		store.hasDefaultAction = true
	}

	for i, chat := range def.Chats {
		handle := NormalizeHandle(chat.Username)
		if handle == "" {
			return nil, &ConfigError{Kind: ConfigMissingHandle, Index: i}
		}
		if _, exists := store.chats[handle]; exists {
			return nil, &ConfigError{Kind: ConfigDuplicateChat, Raw: handle, Index: i}
		}

		policy := chatPolicy{}
		if chat.LogID != nil {
			logID := *chat.LogID
			policy.logID = &logID
		}
		if chat.Action != nil {
			action, err := ParseAction(*chat.Action)
			if err != nil {
				return nil, err
			}
			policy.action = action
			policy.hasAction = true
		}
		store.chats[handle] = policy
	}

	for i, keywords := range def.KeywordGroups {
		if len(keywords) == 0 {
			return nil, &ConfigError{Kind: ConfigEmptyKeywordGroup, Index: i}
		}
		group := KeywordGroup{Keywords: make([]string, 0, len(keywords))}
		for _, keyword := range keywords {
			folded := FoldText(keyword)
			if folded == "" {
				return nil, &ConfigError{Kind: ConfigEmptyKeyword, Index: i}
			}
			group.Keywords = append(group.Keywords, folded)
		}
		store.groups = append(store.groups, group)
	}

	return store, nil
}

func (s *PolicyStore) lookup(chat Chat) (chatPolicy, bool) {
	if chat.Type == ChatPrivate || chat.Type == ChatChannel {
		return chatPolicy{}, false
	}
	handle := chat.Handle()
	if handle == "" {
		return chatPolicy{}, false
	}
	policy, ok := s.chats[handle]
	return policy, ok
}

// IsLegitimate reports whether chat is configured for moderation
func (s *PolicyStore) IsLegitimate(chat Chat) bool {
	_, ok := s.lookup(chat)
	return ok
}

// LogDestination returns the audit chat id configured for chat, if any
func (s *PolicyStore) LogDestination(chat Chat) (int64, bool) {
	policy, ok := s.lookup(chat)
	if !ok || policy.logID == nil {
		return 0, false
	}
	return *policy.logID, true
}

// ChatAction returns the action configured specifically for chat, if any
func (s *PolicyStore) ChatAction(chat Chat) (Action, bool) {
	policy, ok := s.lookup(chat)
	if !ok || !policy.hasAction {
		return ActionIgnore, false
	}
	return policy.action, true
}

// DefaultAction returns the global default action, if one was configured
func (s *PolicyStore) DefaultAction() (Action, bool) {
	return s.defaultAction, s.hasDefaultAction
}

// KeywordGroups returns the keyword groups in configuration order.
// The returned slice must not be modified.
func (s *PolicyStore) KeywordGroups() []KeywordGroup {
	return s.groups
}

// ChatCount returns the number of configured chats
func (s *PolicyStore) ChatCount() int {
	return len(s.chats)
}
