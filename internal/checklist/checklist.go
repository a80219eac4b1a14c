// Package checklist ticks off items in a Markdown checklist when a completed
// task's subject shares a word with them.
//
// Matching is deliberately loose: an unchecked item matches when any one of
// its words at least MinWordLen characters long occurs, case-insensitively,
// as a substring of the task subject. Unrelated items can get checked; that
// trade-off is accepted in exchange for catching most real matches.
package checklist

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// DefaultMinWordLen keeps words longer than three characters.
const DefaultMinWordLen = 4

// Item is an unchecked checklist line split into its parts. Prefix holds the
// indent, list marker and any space before the bracket pair; Text holds
// everything after the closing bracket, leading space included.
type Item struct {
	Prefix string
	Text   string
}

// Checked renders the item with an [x] box, keeping every other byte intact.
func (it Item) Checked() string {
	return it.Prefix + "[x]" + it.Text
}

// ParseLine recognises an unchecked list item:
//
//	indent  marker  space*  "["  space*  "]"  text
//
// where marker is "-", "*" or an ordinal such as "12.". Text must contain at
// least one character.
func ParseLine(line string) (Item, bool) {
	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}

	switch {
	case i < len(line) && (line[i] == '-' || line[i] == '*'):
		i++
	case i < len(line) && isDigit(line[i]):
		for i < len(line) && isDigit(line[i]) {
			i++
		}
		if i >= len(line) || line[i] != '.' {
			return Item{}, false
		}
		i++
	default:
		return Item{}, false
	}

	for i < len(line) && isSpace(line[i]) {
		i++
	}
	if i >= len(line) || line[i] != '[' {
		return Item{}, false
	}
	prefix := line[:i]
	i++
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	if i >= len(line) || line[i] != ']' {
		return Item{}, false
	}
	i++

	text := line[i:]
	if text == "" {
		return Item{}, false
	}
	return Item{Prefix: prefix, Text: text}, true
}

// Match reports whether any word of itemText with at least minWordLen
// characters appears inside subject, ignoring case.
func Match(itemText, subject string, minWordLen int) bool {
	if minWordLen <= 0 {
		minWordLen = DefaultMinWordLen
	}
	subject = strings.ToLower(subject)
	for _, w := range strings.FieldsFunc(strings.ToLower(itemText), unicode.IsSpace) {
		if len([]rune(w)) < minWordLen {
			continue
		}
		if strings.Contains(subject, w) {
			return true
		}
	}
	return false
}

// Result describes what Reconcile changed.
type Result struct {
	Checked []string // item lines that were ticked, as they read after the change
}

// Changed reports whether the document was rewritten.
func (r Result) Changed() bool { return len(r.Checked) > 0 }

// Apply returns content with every matching unchecked item ticked. Line
// endings are preserved.
func Apply(content, subject string, minWordLen int) (string, Result) {
	var res Result
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		body := strings.TrimSuffix(line, "\r")
		item, ok := ParseLine(body)
		if !ok {
			continue
		}
		if !Match(item.Text, subject, minWordLen) {
			continue
		}
		checked := item.Checked()
		res.Checked = append(res.Checked, checked)
		lines[i] = checked + line[len(body):]
	}
	if !res.Changed() {
		return content, res
	}
	return strings.Join(lines, "\n"), res
}

// Reconcile ticks matching items in the document at path and rewrites it in
// one pass when anything changed. A missing document is not an error.
func Reconcile(path, subject string, minWordLen int) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("read checklist: %w", err)
	}

	updated, res := Apply(string(data), subject, minWordLen)
	if !res.Changed() {
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat checklist: %w", err)
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return Result{}, fmt.Errorf("write checklist: %w", err)
	}
	return res, nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
