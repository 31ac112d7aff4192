package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// FileKind pairs a microservice file name with the fence tag used when the
// file is rendered into a prompt or returned by the model.
type FileKind struct {
	Name string
	Tag  string
}

// Canonical microservice file set, in generation order. The debug loop and
// the generator both iterate this table so that prompts and extraction agree
// on file boundaries.
var FileKinds = []FileKind{
	{Name: "microservice.py", Tag: "python"},
	{Name: "test_microservice.py", Tag: "python"},
	{Name: "requirements.txt", Tag: "text"},
	{Name: "Dockerfile", Tag: "dockerfile"},
	{Name: "config.yml", Tag: "yaml"},
}

// TagFor returns the fence tag for a known file name, or "text" for anything else.
func TagFor(fileName string) string {
	for _, kind := range FileKinds {
		if kind.Name == fileName {
			return kind.Tag
		}
	}
	return "text"
}

// singleBlockPattern matches any fenced code block with an optional language tag.
var singleBlockPattern = regexp.MustCompile("(?m)^```(?:\\w+\n)?([\\s\\S]*?)```")

// Block finds a labeled block `**<fileName>**` immediately followed by a
// fenced code block and returns its trimmed inner text. The match is
// non-greedy up to the first fence that is preceded by a newline, so fence
// sequences inside the generated content do not terminate the match early.
//
// When matchSingleBlock is true and no labeled block is found, a response
// containing exactly one unlabeled fenced block yields that block's trimmed
// content. Everything else returns "" — not found, not an error; callers
// re-prompt on empty.
func Block(plainText, fileName string, matchSingleBlock bool) string {
	labeled := regexp.MustCompile(
		"(?m)^\\*\\*" + regexp.QuoteMeta(fileName) + "\\*\\*\n```(?:\\w+\n)?([\\s\\S]*?)\n```",
	)
	if match := labeled.FindStringSubmatch(plainText); match != nil {
		return strings.TrimSpace(match[1])
	}
	if matchSingleBlock {
		matches := singleBlockPattern.FindAllStringSubmatch(plainText, -1)
		if len(matches) == 1 {
			return strings.TrimSpace(matches[0][1])
		}
	}
	return ""
}

// RenderFiles renders file contents as labeled blocks in canonical order,
// the same wire format Block parses. restrict limits output to the named
// files; nil means all known files present in the map.
func RenderFiles(files map[string]string, restrict []string) string {
	allowed := func(name string) bool {
		if restrict == nil {
			return true
		}
		for _, r := range restrict {
			if r == name {
				return true
			}
		}
		return false
	}

	var b strings.Builder
	for _, kind := range FileKinds {
		content, ok := files[kind.Name]
		if !ok || !allowed(kind.Name) {
			continue
		}
		b.WriteString(fmt.Sprintf("**%s**\n```%s\n%s\n```\n\n", kind.Name, kind.Tag, content))
	}
	return strings.TrimSpace(b.String())
}
