package curation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/rolemodelconnect/rolemodel-pipeline/schemas"
)

var (
	storySchema     *gojsonschema.Schema
	storySchemaOnce sync.Once
	storySchemaErr  error
)

func loadStorySchema() (*gojsonschema.Schema, error) {
	storySchemaOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(schemas.StoryEntrySchema)
		storySchema, storySchemaErr = gojsonschema.NewSchema(loader)
	})
	return storySchema, storySchemaErr
}

// ValidateEntry checks a story entry against the embedded JSON Schema and
// returns an error listing every violated constraint.
func ValidateEntry(entry *StoryEntry) error {
	schema, err := loadStorySchema()
	if err != nil {
		return fmt.Errorf("load story schema: %w", err)
	}

	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry for validation: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate entry: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		problems = append(problems, resultErr.String())
	}
	return fmt.Errorf("entry fails schema validation: %s", strings.Join(problems, "; "))
}
