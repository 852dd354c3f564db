package contribution

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// FrontMatter is the YAML header of a SKILL.md document.
type FrontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Document is a SKILL.md split into its header and markdown body.
type Document struct {
	FrontMatter
	Body string
	Raw  string
}

// ParseDocument splits raw into YAML front matter and body. A document
// without front matter is all body.
func ParseDocument(raw string) (Document, error) {
	doc := Document{Raw: raw}
	text := strings.TrimPrefix(strings.ReplaceAll(raw, "\r\n", "\n"), "\ufeff")

	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		doc.Body = strings.TrimSpace(text)
		return doc, nil
	}
	rest := text[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	var header string
	switch {
	case strings.HasPrefix(rest, frontMatterDelim):
		header, rest = "", rest[len(frontMatterDelim):]
	case end < 0:
		return Document{}, fmt.Errorf("front matter: missing closing %q", frontMatterDelim)
	default:
		header, rest = rest[:end], rest[end+1+len(frontMatterDelim):]
	}

	if err := yaml.Unmarshal([]byte(header), &doc.FrontMatter); err != nil {
		return Document{}, fmt.Errorf("front matter: %w", err)
	}
	doc.Name = strings.TrimSpace(doc.Name)
	doc.Description = strings.TrimSpace(doc.Description)
	doc.Body = strings.TrimSpace(rest)
	return doc, nil
}
