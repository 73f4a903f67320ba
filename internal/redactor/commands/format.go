package commands

import (
	"fmt"
	"strings"
)

// Format - поддерживаемый вид строчной разметки.
type Format int

const (
	Bold Format = iota + 1
	Italic
	Underline
	Strike
	Code
	Mark
	Link
	Subscript
	Superscript
)

var formatTags = map[Format]string{
	Bold:        "b",
	Italic:      "i",
	Underline:   "u",
	Strike:      "s",
	Code:        "code",
	Mark:        "mark",
	Link:        "a",
	Subscript:   "sub",
	Superscript: "sup",
}

var formatNames = map[Format]string{
	Bold:        "bold",
	Italic:      "italic",
	Underline:   "underline",
	Strike:      "strike",
	Code:        "code",
	Mark:        "mark",
	Link:        "link",
	Subscript:   "subscript",
	Superscript: "superscript",
}

// Синонимы тегов, которые приводятся к основному формату при разборе.
var tagAliases = map[string]Format{
	"strong": Bold,
	"em":     Italic,
	"del":    Strike,
	"strike": Strike,
}

// Formats возвращает все форматы в порядке объявления.
func Formats() []Format {
	return []Format{Bold, Italic, Underline, Strike, Code, Mark, Link, Subscript, Superscript}
}

// Tag - HTML тег формата.
func (f Format) Tag() string {
	return formatTags[f]
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func (f Format) Valid() bool {
	_, ok := formatTags[f]
	return ok
}

// ParseFormat принимает имя формата (bold) или тег (b, strong).
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s || formatTags[f] == s {
			return f, nil
		}
	}
	if f, ok := tagAliases[s]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// IsFormatTag - тег принадлежит одному из форматов (включая синонимы).
func IsFormatTag(tag string) bool {
	for _, t := range formatTags {
		if t == tag {
			return true
		}
	}
	_, ok := tagAliases[tag]
	return ok
}

// formatTagList - теги всех форматов вместе с синонимами.
func formatTagList() []string {
	var tags []string
	for _, f := range Formats() {
		tags = append(tags, f.Tag())
	}
	for tag := range tagAliases {
		tags = append(tags, tag)
	}
	return tags
}
