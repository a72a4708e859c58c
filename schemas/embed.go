// Package schemas holds the JSON Schema documents that curated output must
// satisfy, embedded so validation needs no files on disk at run time.
package schemas

import (
	_ "embed"
)

//go:embed story_entry.schema.json
var StoryEntrySchema []byte
