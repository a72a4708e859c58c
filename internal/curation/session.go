package curation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rolemodelconnect/rolemodel-pipeline/internal/storage"
	"github.com/rolemodelconnect/rolemodel-pipeline/pkg/logging"
)

// Session is the interactive curation workflow: it walks a human curator
// through turning raw text files into schema-valid story entries. Input and
// output streams are injected so the whole flow is testable with scripted
// answers.
type Session struct {
	raw     *storage.RawStore
	entries *EntryStore

	in  *bufio.Scanner
	out io.Writer
	eof bool
	log zerolog.Logger

	curatorID string
	created   int
}

// NewSession creates a curation session over the given streams.
func NewSession(raw *storage.RawStore, entries *EntryStore, in io.Reader, out io.Writer) *Session {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Session{
		raw:     raw,
		entries: entries,
		in:      scanner,
		out:     out,
		log:     logging.GetLogger("curation"),
	}
}

// Created returns how many entries this session has saved.
func (s *Session) Created() int {
	return s.created
}

// Run drives the full curation loop until the curator exits or input ends.
func (s *Session) Run() error {
	s.printf("\nROLEMODELCONNECT - DATA CURATION\n")
	s.printf("================================\n")

	s.curatorID = s.promptNonEmpty("Enter your curator ID: ")
	if s.curatorID == "" {
		return fmt.Errorf("no curator ID provided")
	}

	for {
		files, err := s.raw.List()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			s.printf("\nNo files found in %s/ - run the collection phase first.\n", s.raw.Dir())
			break
		}

		selected, ok := s.selectFile(files)
		if !ok {
			break
		}

		count := s.promptIntInRange("How many entries from this file? (1-3): ", 1, 3)
		for i := 0; i < count; i++ {
			if err := s.createEntry(selected); err != nil {
				if err == io.EOF {
					return nil
				}
				s.log.Warn().Err(err).Str("file", selected.Name).Msg("Entry creation failed")
				s.printf("Entry not saved: %v\n", err)
			}
		}

		if !s.promptYes("\nCreate entries from another file? (y/n): ") {
			break
		}
	}

	s.printf("\nCuration complete: %d entries saved in %s/\n", s.created, s.entries.Dir())
	return nil
}

// createEntry walks the curator through one story entry for a raw file.
func (s *Session) createEntry(file storage.RawFile) error {
	content, err := s.raw.Read(file.Name)
	if err != nil {
		return err
	}

	s.preview(file.Name, content)

	name := s.confirmRoleModelName(content)
	if name == "" {
		return io.EOF
	}

	storyNumber, err := s.entries.NextStoryNumber(name, s.curatorID)
	if err != nil {
		return err
	}
	s.printf("\nCreating entry #%d for %s\n\n", storyNumber, name)

	entry := &StoryEntry{
		RoleModelName:        name,
		RoleModelContext:     s.promptMinLen("Context (1 sentence): ", 10),
		SituationFaced:       s.promptMinLen("Situation faced: ", 10),
		ChallengeNarrative:   s.promptMinLen("Challenge narrative (2-3 sentences): ", 20),
		MentalHealthThemes:   s.selectThemes(),
		CopingStrategiesUsed: s.promptList("Coping strategies (comma-separated): "),
		KeyActionTaken:       s.promptMinLen("Key action taken: ", 5),
		KeyQuoteOrInsight:    s.promptQuote(content),
		SummaryPsychological: s.promptMinLen("Psychological lesson (2-3 sentences): ", 20),
		OutcomeResolution:    s.promptMinLen("Outcome / resolution: ", 10),
		SourceReference:      file.Name,
	}

	saved, err := s.entries.Save(entry, storyNumber, s.curatorID)
	if err != nil {
		return err
	}

	s.created++
	s.printf("\nSaved %s\n", saved)
	s.summarize(entry)
	return nil
}

// confirmRoleModelName prefers the name in the raw file header and lets the
// curator override it; falls back to manual entry.
func (s *Session) confirmRoleModelName(content string) string {
	if inferred := storage.InferSubject(content); inferred != "" {
		s.printf("\nDetected role model name from file header: %q\n", inferred)
		override := s.prompt("Press Enter to confirm, or type a different name: ")
		if override != "" {
			return override
		}
		return inferred
	}
	return s.promptMinLen("Enter role model name: ", 2)
}

// selectThemes collects 2-4 themes from the closed vocabulary by number.
func (s *Session) selectThemes() []string {
	s.printf("\nSelect 2-4 mental health themes:\n")
	for i, theme := range MentalHealthThemes {
		s.printf("  %d. %s\n", i+1, theme)
	}

	for {
		answer := s.prompt("Theme numbers (comma-separated, e.g. 1,3): ")
		if answer == "" {
			return nil
		}

		var themes []string
		valid := true
		for _, part := range strings.Split(answer, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(MentalHealthThemes) {
				valid = false
				break
			}
			themes = append(themes, MentalHealthThemes[n-1])
		}

		if valid && len(themes) >= 2 && len(themes) <= 4 {
			return themes
		}
		s.printf("Please choose between 2 and 4 valid theme numbers.\n")
	}
}

// promptQuote asks for a direct quote and verifies it appears in the raw
// text; the curator may explicitly override a failed check.
func (s *Session) promptQuote(content string) string {
	for {
		quote := s.promptMinLen("Direct quote from the raw text: ", 10)
		if quote == "" {
			return ""
		}
		if QuoteInRaw(quote, content) {
			return quote
		}

		s.log.Warn().Msg("Quote not found in raw text")
		if s.promptYes("Quote not found in raw text. Keep it anyway? (y/n): ") {
			return quote
		}
	}
}

func (s *Session) preview(name, content string) {
	const previewLen = 1500

	s.printf("\n--- %s ---\n", name)
	if len(content) > previewLen {
		s.printf("%s\n... (%d more characters)\n", content[:previewLen], len(content)-previewLen)
	} else {
		s.printf("%s\n", content)
	}
	s.printf("--- end of preview ---\n")
}

func (s *Session) summarize(entry *StoryEntry) {
	s.printf("\nRole model: %s\n", entry.RoleModelName)
	s.printf("Situation:  %s\n", entry.SituationFaced)
	s.printf("Themes:     %s\n", strings.Join(entry.MentalHealthThemes, ", "))
	s.printf("Action:     %s\n", entry.KeyActionTaken)
	s.printf("Quote:      %q\n", entry.KeyQuoteOrInsight)
	s.printf("Source:     %s\n", entry.SourceReference)
}

// selectFile shows the available raw files and reads a 1-based choice;
// 0 or end of input exits.
func (s *Session) selectFile(files []storage.RawFile) (storage.RawFile, bool) {
	s.printf("\nAvailable raw data files:\n")
	for i, file := range files {
		s.printf("  %d. %s (%.1f KB)\n", i+1, file.Name, float64(file.Size)/1024)
	}

	for {
		answer := s.prompt("File number to curate (0 to exit): ")
		if answer == "" {
			return storage.RawFile{}, false
		}
		n, err := strconv.Atoi(answer)
		if err != nil {
			s.printf("Please enter a valid number.\n")
			continue
		}
		if n == 0 {
			return storage.RawFile{}, false
		}
		if n >= 1 && n <= len(files) {
			return files[n-1], true
		}
		s.printf("Invalid choice, try again.\n")
	}
}

// Prompt helpers. All return "" once input is exhausted so callers can bail
// out instead of looping forever on EOF.

func (s *Session) prompt(msg string) string {
	if s.eof {
		return ""
	}
	s.printf("%s", msg)
	if !s.in.Scan() {
		s.eof = true
		return ""
	}
	return strings.TrimSpace(s.in.Text())
}

func (s *Session) promptNonEmpty(msg string) string {
	for !s.eof {
		if answer := s.prompt(msg); answer != "" {
			return answer
		}
	}
	return ""
}

func (s *Session) promptMinLen(msg string, min int) string {
	for !s.eof {
		answer := s.prompt(msg)
		if len(answer) >= min {
			return answer
		}
		s.printf("Please enter at least %d characters.\n", min)
	}
	return ""
}

func (s *Session) promptList(msg string) []string {
	answer := s.prompt(msg)
	var items []string
	for _, part := range strings.Split(answer, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func (s *Session) promptIntInRange(msg string, lo, hi int) int {
	for {
		answer := s.prompt(msg)
		if answer == "" {
			return lo
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= lo && n <= hi {
			return n
		}
		s.printf("Please enter a number between %d and %d.\n", lo, hi)
	}
}

func (s *Session) promptYes(msg string) bool {
	answer := strings.ToLower(s.prompt(msg))
	return answer == "y" || answer == "yes"
}

func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}
