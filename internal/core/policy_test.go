package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func supergroup(handle string) Chat {
	return Chat{ID: -100123, Type: ChatSupergroup, Username: handle}
}

func TestNewPolicyStoreRejectsEmptyChats(t *testing.T) {
	_, err := NewPolicyStore(PolicyDefinition{
		KeywordGroups: [][]string{{"bitcoin"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoChats))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ConfigNoChats, cfgErr.Kind)
}

func TestNewPolicyStoreRejectsEmptyKeywordGroups(t *testing.T) {
	_, err := NewPolicyStore(PolicyDefinition{
		Chats: []ChatDefinition{{Username: "group1"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoKeywordGroups))
}

func TestNewPolicyStoreRejectsInvalidActions(t *testing.T) {
	tests := []struct {
		name string
		def  PolicyDefinition
	}{
		{
			name: "chat action",
			def: PolicyDefinition{
				Chats:         []ChatDefinition{{Username: "group1", Action: strPtr("mute")}},
				KeywordGroups: [][]string{{"bitcoin"}},
			},
		},
		{
			name: "default action",
			def: PolicyDefinition{
				DefaultAction: strPtr("explode"),
				Chats:         []ChatDefinition{{Username: "group1"}},
				KeywordGroups: [][]string{{"bitcoin"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicyStore(tt.def)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAction))
		})
	}
}

func TestNewPolicyStoreRejectsEmptyKeywords(t *testing.T) {
	_, err := NewPolicyStore(PolicyDefinition{
		Chats:         []ChatDefinition{{Username: "group1"}},
		KeywordGroups: [][]string{{"bitcoin"}, {}},
	})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ConfigEmptyKeywordGroup, cfgErr.Kind)
	assert.Equal(t, 1, cfgErr.Index)

	_, err = NewPolicyStore(PolicyDefinition{
		Chats:         []ChatDefinition{{Username: "group1"}},
		KeywordGroups: [][]string{{"bitcoin", "  "}},
	})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ConfigEmptyKeyword, cfgErr.Kind)
}

func TestNewPolicyStoreRejectsDuplicateChats(t *testing.T) {
	_, err := NewPolicyStore(PolicyDefinition{
		Chats:         []ChatDefinition{{Username: "@Group1"}, {Username: "group1"}},
		KeywordGroups: [][]string{{"bitcoin"}},
	})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ConfigDuplicateChat, cfgErr.Kind)
	assert.Equal(t, "group1", cfgErr.Raw)
}

func TestPolicyStoreLookups(t *testing.T) {
	store, err := NewPolicyStore(PolicyDefinition{
		DefaultAction: strPtr("BAN"),
		Chats: []ChatDefinition{
			{Username: "@group1", LogID: int64Ptr(-100999), Action: strPtr("Kick")},
			{Username: "group2"},
		},
		KeywordGroups: [][]string{{"Bitcoin", "GiveAway"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, store.ChatCount())
	assert.True(t, store.IsLegitimate(supergroup("group1")))
	assert.True(t, store.IsLegitimate(supergroup("GROUP1")))
	assert.False(t, store.IsLegitimate(supergroup("group3")))
	assert.False(t, store.IsLegitimate(supergroup("")))

	logID, ok := store.LogDestination(supergroup("group1"))
	assert.True(t, ok)
	assert.Equal(t, int64(-100999), logID)
	_, ok = store.LogDestination(supergroup("group2"))
	assert.False(t, ok)

	action, ok := store.ChatAction(supergroup("group1"))
	assert.True(t, ok)
	assert.Equal(t, ActionKick, action)
	_, ok = store.ChatAction(supergroup("group2"))
	assert.False(t, ok)

	def, ok := store.DefaultAction()
	assert.True(t, ok)
	assert.Equal(t, ActionBan, def)

	require.Len(t, store.KeywordGroups(), 1)
	assert.Equal(t, []string{"bitcoin", "giveaway"}, store.KeywordGroups()[0].Keywords)
}

func TestPolicyStoreNeverTrustsPrivateChatsOrChannels(t *testing.T) {
	store, err := NewPolicyStore(PolicyDefinition{
		Chats:         []ChatDefinition{{Username: "group1"}},
		KeywordGroups: [][]string{{"bitcoin"}},
	})
	require.NoError(t, err)

	assert.False(t, store.IsLegitimate(Chat{ID: 42, Type: ChatPrivate, Username: "group1"}))
	assert.False(t, store.IsLegitimate(Chat{ID: -100, Type: ChatChannel, Username: "group1"}))
	assert.True(t, store.IsLegitimate(Chat{ID: -100, Type: ChatGroup, Username: "group1"}))
}

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"kick":  ActionKick,
		"KICK":  ActionKick,
		" ban ": ActionBan,
		"None":  ActionIgnore,
	}
	for raw, want := range tests {
		got, err := ParseAction(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseAction("ignore")
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "ignore", cfgErr.Raw)
	assert.Contains(t, cfgErr.Error(), `"ignore"`)
}

func TestResolve(t *testing.T) {
	withDefault, err := NewPolicyStore(PolicyDefinition{
		DefaultAction: strPtr("ban"),
		Chats: []ChatDefinition{
			{Username: "kickers", Action: strPtr("kick")},
			{Username: "ignorers", Action: strPtr("none")},
			{Username: "plain"},
		},
		KeywordGroups: [][]string{{"bitcoin"}},
	})
	require.NoError(t, err)

	assert.Equal(t, ActionKick, Resolve(supergroup("kickers"), withDefault))
	assert.Equal(t, ActionIgnore, Resolve(supergroup("ignorers"), withDefault))
	assert.Equal(t, ActionBan, Resolve(supergroup("plain"), withDefault))

	withoutDefault, err := NewPolicyStore(PolicyDefinition{
		Chats:         []ChatDefinition{{Username: "plain"}},
		KeywordGroups: [][]string{{"bitcoin"}},
	})
	require.NoError(t, err)
	assert.Equal(t, ActionIgnore, Resolve(supergroup("plain"), withoutDefault))
}
