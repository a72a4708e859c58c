package curation

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolemodelconnect/rolemodel-pipeline/internal/storage"
)

// seedRawFile writes one collected raw file for the session to curate.
func seedRawFile(t *testing.T, dir string) *storage.RawStore {
	t.Helper()

	raw, err := storage.NewRawStore(dir)
	require.NoError(t, err)

	_, err = raw.Write(&storage.RawDocument{
		Subject:     "Test Person",
		SourceURL:   "https://example.com/interview",
		SourceIndex: 1,
		Text: "In the interview she described the worst year of her career. " +
			"She later said: \"Asking for help was the strongest thing I ever did.\" " +
			"The following season she returned to competition.",
		RetrievedAt: time.Now(),
	})
	require.NoError(t, err)

	return raw
}

func TestSessionCreatesEntryEndToEnd(t *testing.T) {
	raw := seedRawFile(t, t.TempDir())
	entries, err := NewEntryStore(t.TempDir())
	require.NoError(t, err)

	script := strings.Join([]string{
		"curator01", // curator ID
		"1",         // file selection
		"1",         // one entry from this file
		"",          // accept the inferred role model name
		"Professional athlete and mental health advocate.",
		"Faced intense public scrutiny after a career-ending injury scare.",
		"After the injury ended the season, sponsors withdrew and the press turned hostile. The pressure kept building for months.",
		"1,10", // anxiety, public_pressure
		"therapy, journaling",
		"Sought professional help and spoke publicly about it.",
		"Asking for help was the strongest thing I ever did.",
		"Naming the problem out loud reduced its power and opened the door to a real recovery.",
		"Returned to competition the following year.",
		"n", // no more files
	}, "\n") + "\n"

	var out bytes.Buffer
	session := NewSession(raw, entries, strings.NewReader(script), &out)
	require.NoError(t, session.Run())

	assert.Equal(t, 1, session.Created())

	path := filepath.Join(entries.Dir(), "TestPerson_1_curator01.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry StoryEntry
	require.NoError(t, json.Unmarshal(data, &entry))

	assert.Equal(t, "Test Person", entry.RoleModelName, "name inferred from the raw file header")
	assert.Equal(t, []string{"anxiety", "public_pressure"}, entry.MentalHealthThemes)
	assert.Equal(t, []string{"therapy", "journaling"}, entry.CopingStrategiesUsed)
	assert.Equal(t, "Test_Person_Source_1.txt", entry.SourceReference)

	// The quote is verbatim from the raw file, keeping the entry traceable.
	content, err := raw.Read("Test_Person_Source_1.txt")
	require.NoError(t, err)
	assert.True(t, QuoteInRaw(entry.KeyQuoteOrInsight, content))
}

func TestSessionRoleModelNameOverride(t *testing.T) {
	raw := seedRawFile(t, t.TempDir())
	entries, err := NewEntryStore(t.TempDir())
	require.NoError(t, err)

	script := strings.Join([]string{
		"curator01",
		"1",
		"1",
		"Someone Else", // override the inferred name
		"Professional athlete and mental health advocate.",
		"Faced intense public scrutiny after a career-ending injury scare.",
		"After the injury ended the season, sponsors withdrew and the press turned hostile. The pressure kept building for months.",
		"1,10",
		"therapy",
		"Sought professional help and spoke publicly about it.",
		"Asking for help was the strongest thing I ever did.",
		"Naming the problem out loud reduced its power and opened the door to a real recovery.",
		"Returned to competition the following year.",
		"n",
	}, "\n") + "\n"

	var out bytes.Buffer
	session := NewSession(raw, entries, strings.NewReader(script), &out)
	require.NoError(t, session.Run())

	_, err = os.Stat(filepath.Join(entries.Dir(), "SomeoneElse_1_curator01.json"))
	assert.NoError(t, err)
}

func TestSessionQuoteCheckOverride(t *testing.T) {
	raw := seedRawFile(t, t.TempDir())
	entries, err := NewEntryStore(t.TempDir())
	require.NoError(t, err)

	script := strings.Join([]string{
		"curator01",
		"1",
		"1",
		"",
		"Professional athlete and mental health advocate.",
		"Faced intense public scrutiny after a career-ending injury scare.",
		"After the injury ended the season, sponsors withdrew and the press turned hostile. The pressure kept building for months.",
		"1,10",
		"therapy",
		"Sought professional help and spoke publicly about it.",
		"A paraphrased insight that is not in the raw text.", // fails the check
		"y", // keep it anyway
		"Naming the problem out loud reduced its power and opened the door to a real recovery.",
		"Returned to competition the following year.",
		"n",
	}, "\n") + "\n"

	var out bytes.Buffer
	session := NewSession(raw, entries, strings.NewReader(script), &out)
	require.NoError(t, session.Run())

	assert.Equal(t, 1, session.Created())
	assert.Contains(t, out.String(), "Quote not found")
}

func TestSessionRequiresCuratorID(t *testing.T) {
	raw := seedRawFile(t, t.TempDir())
	entries, err := NewEntryStore(t.TempDir())
	require.NoError(t, err)

	var out bytes.Buffer
	session := NewSession(raw, entries, strings.NewReader(""), &out)
	assert.Error(t, session.Run(), "input ending before a curator ID aborts the session")
}

func TestSessionExitsOnZeroSelection(t *testing.T) {
	raw := seedRawFile(t, t.TempDir())
	entries, err := NewEntryStore(t.TempDir())
	require.NoError(t, err)

	script := "curator01\n0\n"

	var out bytes.Buffer
	session := NewSession(raw, entries, strings.NewReader(script), &out)
	require.NoError(t, session.Run())

	assert.Equal(t, 0, session.Created())
	files, err := os.ReadDir(entries.Dir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSessionReportsWhenNoRawFiles(t *testing.T) {
	raw, err := storage.NewRawStore(t.TempDir())
	require.NoError(t, err)
	entries, err := NewEntryStore(t.TempDir())
	require.NoError(t, err)

	var out bytes.Buffer
	session := NewSession(raw, entries, strings.NewReader("curator01\n"), &out)
	require.NoError(t, session.Run())

	assert.Contains(t, out.String(), "No files found")
	assert.Equal(t, 0, session.Created())
}
