package parser

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/vk/tfindex/internal/block"
)

// fallbackRangeLen caps the sentinel range emitted when no anchor matches.
const fallbackRangeLen = 100

// rangeScanner estimates block extents within one file's text. It keeps one
// forward cursor per anchor pattern so that repeated anchors (several
// `locals {}` blocks, re-declared names) resolve to successive occurrences
// in source order.
type rangeScanner struct {
	text    string
	runes   []rune
	cursors map[string]int
}

func newRangeScanner(text string) *rangeScanner {
	return &rangeScanner{
		text:    text,
		runes:   []rune(text),
		cursors: make(map[string]int),
	}
}

// estimate anchors the first pattern that matches at or after its cursor,
// then brace-scans to the end of the block. When nothing matches, it
// degrades to the documented sentinel range rather than failing.
func (s *rangeScanner) estimate(patterns ...string) block.Range {
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		cursor := s.cursors[pattern]
		if cursor > len(s.text) {
			continue
		}
		loc := re.FindStringIndex(s.text[cursor:])
		if loc == nil {
			continue
		}
		byteStart := cursor + loc[0]
		s.cursors[pattern] = cursor + loc[1]

		start := utf8.RuneCountInString(s.text[:byteStart])
		if end, ok := s.braceScan(start); ok {
			return block.Range{Start: start, End: end}
		}
		// Unbalanced braces: take everything from the anchor onward.
		return block.Range{Start: start, End: len(s.runes)}
	}
	end := len(s.runes)
	if end > fallbackRangeLen {
		end = fallbackRangeLen
	}
	return block.Range{Start: 0, End: end}
}

// braceScan walks forward from start tracking brace depth, skipping braces
// inside double-quoted strings (with backslash-escape awareness). It returns
// the rune index one past the brace that closes the block.
func (s *rangeScanner) braceScan(start int) (int, bool) {
	depth := 0
	entered := false
	inString := false
	escaped := false

	for i := start; i < len(s.runes); i++ {
		r := s.runes[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch r {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
			entered = true
		case '}':
			depth--
			if entered && depth <= 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// nativeAnchors builds the anchor patterns for a block in native syntax,
// most specific first.
func nativeAnchors(kind block.Kind, typ, name string) []string {
	keyword := regexp.QuoteMeta(string(kind))
	switch kind {
	case block.KindResource, block.KindData:
		patterns := make([]string, 0, 2)
		if typ != "" && name != "" {
			patterns = append(patterns, fmt.Sprintf(`%s\s+"%s"\s+"%s"`, keyword, regexp.QuoteMeta(typ), regexp.QuoteMeta(name)))
		}
		return append(patterns, fmt.Sprintf(`%s\s+"[^"]*"\s*\{`, keyword))
	case block.KindLocals:
		return []string{`locals\s*\{`}
	default:
		patterns := make([]string, 0, 2)
		if name != "" {
			patterns = append(patterns, fmt.Sprintf(`%s\s+"%s"`, keyword, regexp.QuoteMeta(name)))
		}
		return append(patterns, fmt.Sprintf(`%s\s+"[^"]*"\s*\{`, keyword))
	}
}

// jsonAnchors builds the anchor patterns for a block in the JSON dialect,
// where declarations nest as object keys.
func jsonAnchors(kind block.Kind, name string) []string {
	if kind == block.KindLocals {
		return []string{`"locals"\s*:\s*\{`}
	}
	patterns := make([]string, 0, 2)
	if name != "" {
		patterns = append(patterns, fmt.Sprintf(`"%s"\s*:\s*\{`, regexp.QuoteMeta(name)))
	}
	return append(patterns, fmt.Sprintf(`"%s"\s*:\s*\{`, regexp.QuoteMeta(string(kind))))
}
