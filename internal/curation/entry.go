package curation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultOutputDir is where curated JSON entries are saved.
const DefaultOutputDir = "Generated_JSON_Entries"

// MentalHealthThemes is the closed vocabulary for the themes field.
var MentalHealthThemes = []string{
	"anxiety",
	"depression",
	"stress_management",
	"burnout",
	"grief",
	"addiction_recovery",
	"imposter_syndrome",
	"self_esteem",
	"relationship_challenges",
	"public_pressure",
}

// StoryEntry is one curated story. Field names are the fixed downstream
// contract; consumers key on them exactly as written.
type StoryEntry struct {
	RoleModelName        string   `json:"Role_Model_Name"`
	RoleModelContext     string   `json:"Role_Model_Context"`
	SituationFaced       string   `json:"Situation_Faced"`
	ChallengeNarrative   string   `json:"Challenge_Narrative"`
	MentalHealthThemes   []string `json:"Mental_Health_Themes"`
	CopingStrategiesUsed []string `json:"Coping_Strategies_Used"`
	KeyActionTaken       string   `json:"Key_Action_Taken"`
	KeyQuoteOrInsight    string   `json:"Key_Quote_or_Insight"`
	SummaryPsychological string   `json:"Summary_Psychological"`
	OutcomeResolution    string   `json:"Outcome_Resolution"`
	SourceReference      string   `json:"Source_Reference"`
}

// SanitizeName makes a role model name safe for entry filenames: spaces and
// apostrophes are dropped, matching the established file pattern.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "'", "")
	return name
}

// EntryFileName builds the output name {Name}_{StoryNumber}_{CuratorID}.json.
func EntryFileName(roleModelName string, storyNumber int, curatorID string) string {
	return fmt.Sprintf("%s_%d_%s.json", SanitizeName(roleModelName), storyNumber, curatorID)
}

// EntryStore saves curated entries and computes story numbering by scanning
// what is already on disk.
type EntryStore struct {
	dir string
}

// NewEntryStore creates the output directory if needed.
func NewEntryStore(dir string) (*EntryStore, error) {
	if dir == "" {
		dir = DefaultOutputDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &EntryStore{dir: dir}, nil
}

// Dir returns the output directory path.
func (es *EntryStore) Dir() string {
	return es.dir
}

// NextStoryNumber scans existing entries for this role model and curator and
// returns one past the highest story number found, starting at 1.
func (es *EntryStore) NextStoryNumber(roleModelName, curatorID string) (int, error) {
	entries, err := os.ReadDir(es.dir)
	if err != nil {
		return 0, fmt.Errorf("scan output directory %s: %w", es.dir, err)
	}

	cleanName := SanitizeName(roleModelName)
	var numbers []int

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		parts := strings.Split(strings.TrimSuffix(name, ".json"), "_")
		if len(parts) < 3 {
			continue
		}
		if parts[0] != cleanName || parts[2] != curatorID {
			continue
		}

		if n, err := strconv.Atoi(parts[1]); err == nil {
			numbers = append(numbers, n)
		}
	}

	if len(numbers) == 0 {
		return 1, nil
	}
	sort.Ints(numbers)
	return numbers[len(numbers)-1] + 1, nil
}

// Save validates the entry against the story schema and writes it as
// indented JSON. Returns the file name written.
func (es *EntryStore) Save(entry *StoryEntry, storyNumber int, curatorID string) (string, error) {
	if err := ValidateEntry(entry); err != nil {
		return "", err
	}

	name := EntryFileName(entry.RoleModelName, storyNumber, curatorID)
	path := filepath.Join(es.dir, name)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write entry %s: %w", path, err)
	}

	log.Info().
		Str("file", name).
		Str("role_model", entry.RoleModelName).
		Str("source", entry.SourceReference).
		Msg("Curated entry saved")

	return name, nil
}

// QuoteInRaw reports whether the quote appears verbatim (case-insensitive)
// in the raw text it was supposedly taken from. Curators may override a
// negative answer, but the check keeps the default path traceable.
func QuoteInRaw(quote, rawContent string) bool {
	quote = strings.TrimSpace(quote)
	if quote == "" {
		return false
	}
	return strings.Contains(strings.ToLower(rawContent), strings.ToLower(quote))
}

// IsValidTheme reports whether a theme belongs to the closed vocabulary.
func IsValidTheme(theme string) bool {
	for _, t := range MentalHealthThemes {
		if t == theme {
			return true
		}
	}
	return false
}
