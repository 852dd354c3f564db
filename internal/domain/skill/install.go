package skill

import (
	"fmt"
	"sort"
	"strings"
)

// Well-known file names inside a skill directory.
const (
	InstructionFile = "SKILL.md"
	ReadmeFile      = "README.md"
)

const installHeader = "Please install this Claude Code skill by creating the following files:\n\n"

// File is one instruction document of a skill.
type File struct {
	Name    string
	Content string
}

// IsInstructionFile reports whether name takes part in the install prompt:
// every markdown file except the README.
func IsInstructionFile(name string) bool {
	return strings.HasSuffix(name, ".md") && name != ReadmeFile
}

// SortInstructionFiles puts SKILL.md first and the rest in lexical order.
func SortInstructionFiles(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].Name, files[j].Name
		switch {
		case a == InstructionFile:
			return b != InstructionFile
		case b == InstructionFile:
			return false
		default:
			return a < b
		}
	})
}

// InstallPath is where an agent should write file name of skill slug.
func InstallPath(slug, name string) string {
	return ".claude/skills/" + slug + "/" + name
}

// BuildInstallPrompt concatenates files, in the given order, into a one-shot
// install instruction.
func BuildInstallPrompt(slug string, files []File) string {
	blocks := make([]string, 0, len(files))
	for _, f := range files {
		blocks = append(blocks, fmt.Sprintf("--- File: %s ---\n%s", InstallPath(slug, f.Name), f.Content))
	}
	return installHeader + strings.Join(blocks, "\n\n")
}
