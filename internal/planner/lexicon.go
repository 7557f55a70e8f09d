package planner

import "strings"

// smallTalkPhrases 收录了精确匹配的寒暄与求助用语，
// 命中后直接走快捷路径，保证寒暄绝不触发模型调用。
var smallTalkPhrases = map[string]struct{}{
	"hi":              {},
	"hello":           {},
	"hey":             {},
	"yo":              {},
	"gm":              {},
	"good morning":    {},
	"good afternoon":  {},
	"good evening":    {},
	"hello there":     {},
	"hi there":        {},
	"help":            {},
	"what can you do": {},
	"what do you do":  {},
	"thanks":          {},
	"thank you":       {},
	"thx":             {},
	"ty":              {},
	"ok":              {},
	"okay":            {},
	"cool":            {},
}

// greetingPrefixes 允许短消息以寒暄开头，例如 "hey bot"。
var greetingPrefixes = []string{"hi ", "hello ", "hey ", "gm "}

const greetingMaxLen = 24

// isSmallTalk 对消息做大小写归一与空白规整后查表。
func isSmallTalk(text string) bool {
	normalized := normalizeUtterance(text)
	if normalized == "" {
		return true
	}
	if _, ok := smallTalkPhrases[normalized]; ok {
		return true
	}
	if len(normalized) <= greetingMaxLen {
		for _, prefix := range greetingPrefixes {
			if strings.HasPrefix(normalized, prefix) {
				return true
			}
		}
	}
	return false
}

func normalizeUtterance(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Trim(normalized, "!.?,")
	return strings.Join(strings.Fields(normalized), " ")
}
