package extract

import "strings"

// docstringAbove collects the contiguous line-comment block immediately
// above a definition. Best-effort and language-agnostic: it recognizes
// the common line comment leaders and stops at the first blank or
// non-comment line.
func docstringAbove(lines []string, startLine int) string {
	// startLine is 1-based; the line above the definition is index startLine-2.
	i := startLine - 2
	var block []string
	for i >= 0 {
		trimmed := strings.TrimSpace(lines[i])
		leader := commentLeader(trimmed)
		if leader == "" {
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, leader))
		block = append([]string{text}, block...)
		i--
	}
	doc := strings.TrimSpace(strings.Join(block, "\n"))
	if len(doc) > 1000 {
		doc = doc[:1000]
	}
	return doc
}

func commentLeader(line string) string {
	switch {
	case strings.HasPrefix(line, "///"):
		return "///"
	case strings.HasPrefix(line, "//"):
		return "//"
	case strings.HasPrefix(line, "#"):
		return "#"
	case strings.HasPrefix(line, "*"):
		return "*"
	default:
		return ""
	}
}
