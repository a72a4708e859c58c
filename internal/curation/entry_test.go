package curation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validEntry returns an entry that satisfies every schema constraint.
func validEntry() *StoryEntry {
	return &StoryEntry{
		RoleModelName:        "Test Person",
		RoleModelContext:     "Professional athlete and mental health advocate.",
		SituationFaced:       "Faced intense public scrutiny after a career-ending injury scare.",
		ChallengeNarrative:   "After the injury ended the season, sponsors withdrew and the press turned hostile. The pressure kept building for months with no outlet.",
		MentalHealthThemes:   []string{"anxiety", "public_pressure"},
		CopingStrategiesUsed: []string{"therapy", "journaling"},
		KeyActionTaken:       "Sought professional help and spoke publicly about it.",
		KeyQuoteOrInsight:    "Asking for help was the strongest thing I ever did.",
		SummaryPsychological: "Naming the problem out loud reduced its power and opened the door to a real recovery.",
		OutcomeResolution:    "Returned to competition the following year.",
		SourceReference:      "Test_Person_Source_1.txt",
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "DwayneJohnson", SanitizeName("Dwayne Johnson"))
	assert.Equal(t, "ConorOBrien", SanitizeName("Conor O'Brien"))
	assert.Equal(t, "Single", SanitizeName("Single"))
}

func TestEntryFileName(t *testing.T) {
	assert.Equal(t, "TestPerson_1_curator01.json", EntryFileName("Test Person", 1, "curator01"))
	assert.Equal(t, "TestPerson_12_jane.json", EntryFileName("Test Person", 12, "jane"))
}

func TestNextStoryNumber(t *testing.T) {
	dir := t.TempDir()
	store, err := NewEntryStore(dir)
	require.NoError(t, err)

	t.Run("empty directory starts at one", func(t *testing.T) {
		n, err := store.NextStoryNumber("Test Person", "curator01")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("continues past existing entries", func(t *testing.T) {
		for _, name := range []string{"TestPerson_1_curator01.json", "TestPerson_3_curator01.json"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
		}

		n, err := store.NextStoryNumber("Test Person", "curator01")
		require.NoError(t, err)
		assert.Equal(t, 4, n, "numbering resumes after the highest existing story")
	})

	t.Run("other curators and role models are ignored", func(t *testing.T) {
		for _, name := range []string{"TestPerson_9_othercurator.json", "SomeoneElse_9_curator01.json"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
		}

		n, err := store.NextStoryNumber("Test Person", "curator01")
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})
}

func TestEntryStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewEntryStore(dir)
	require.NoError(t, err)

	name, err := store.Save(validEntry(), 1, "curator01")
	require.NoError(t, err)
	assert.Equal(t, "TestPerson_1_curator01.json", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	// The file must carry the exact downstream field names.
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{
		"Role_Model_Name", "Role_Model_Context", "Situation_Faced",
		"Challenge_Narrative", "Mental_Health_Themes", "Coping_Strategies_Used",
		"Key_Action_Taken", "Key_Quote_or_Insight", "Summary_Psychological",
		"Outcome_Resolution", "Source_Reference",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, "Test Person", decoded["Role_Model_Name"])
}

func TestEntryStoreSaveRejectsInvalidEntry(t *testing.T) {
	store, err := NewEntryStore(t.TempDir())
	require.NoError(t, err)

	entry := validEntry()
	entry.MentalHealthThemes = []string{"anxiety"} // below the two-theme minimum

	_, err = store.Save(entry, 1, "curator01")
	require.Error(t, err)

	// Nothing is written for a rejected entry.
	files, readErr := os.ReadDir(store.Dir())
	require.NoError(t, readErr)
	assert.Empty(t, files)
}

func TestQuoteInRaw(t *testing.T) {
	raw := "Role Model: Test Person\n\nShe later said: \"Asking for help was the strongest thing I ever did.\""

	assert.True(t, QuoteInRaw("Asking for help was the strongest thing I ever did.", raw))
	assert.True(t, QuoteInRaw("ASKING FOR HELP was the strongest", raw), "matching is case-insensitive")
	assert.False(t, QuoteInRaw("I never said this.", raw))
	assert.False(t, QuoteInRaw("", raw))
	assert.False(t, QuoteInRaw("   ", raw))
}

func TestIsValidTheme(t *testing.T) {
	assert.True(t, IsValidTheme("anxiety"))
	assert.True(t, IsValidTheme("public_pressure"))
	assert.False(t, IsValidTheme("happiness"))
	assert.False(t, IsValidTheme(""))
}
