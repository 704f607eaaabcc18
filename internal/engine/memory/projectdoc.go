package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultDocFilenames lists the project-doc filenames searched in priority
// order, grounded on project_doc.py's DEFAULT_FILENAMES.
var defaultDocFilenames = []string{"AGENTS.override.md", "AGENTS.md", ".agent.md"}

const maxProjectDocSize = 32 * 1024

// loadProjectDoc finds and loads the first matching project-doc file in cwd,
// grounded on original_source/src/core/memory/project_doc.py's
// ProjectDocLoader (simplified to a single-directory search, matching the
// reference's own "discover_docs" comment that it checks cwd only).
func loadProjectDoc(cwd string) (string, bool) {
	for _, name := range defaultDocFilenames {
		path := filepath.Join(cwd, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		text := string(data)
		if len(data) > maxProjectDocSize {
			text = text[:maxProjectDocSize]
		}
		return fmt.Sprintf("# %s\n%s", name, text), true
	}
	return "", false
}

// projectDocSystemMessage wraps the loaded doc content in the same
// instructional framing as load_as_system_message.
func projectDocSystemMessage(cwd string) (string, bool) {
	doc, ok := loadProjectDoc(cwd)
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString("## Project documentation\n\n")
	b.WriteString("The following project-specific rules and conventions apply:\n\n")
	b.WriteString(doc)
	b.WriteString("\n\nFollow the rules and conventions above when assisting the user.\n")
	return b.String(), true
}
