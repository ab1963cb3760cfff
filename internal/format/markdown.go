// Package format builds Telegram message text together with its entities,
// so nothing user supplied ever has to be escaped for a parse mode.
package format

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len calculates the UTF-16 length of a string.
// Telegram measures entity offsets and lengths in UTF-16 code units.
func UTF16Len(s string) int {
	length := 0
	for _, r := range s {
		if r >= 0x10000 {
			length += 2 // surrogate pair
		} else {
			length++
		}
	}
	return length
}

// Builder accumulates styled segments.
type Builder struct {
	sb       strings.Builder
	offset   int
	entities []tgbotapi.MessageEntity
}

func (b *Builder) write(s, entityType string) *Builder {
	if s == "" {
		return b
	}
	n := UTF16Len(s)
	if entityType != "" {
		b.entities = append(b.entities, tgbotapi.MessageEntity{
			Type:   entityType,
			Offset: b.offset,
			Length: n,
		})
	}
	b.sb.WriteString(s)
	b.offset += n
	return b
}

func (b *Builder) Text(s string) *Builder   { return b.write(s, "") }
func (b *Builder) Bold(s string) *Builder   { return b.write(s, "bold") }
func (b *Builder) Italic(s string) *Builder { return b.write(s, "italic") }
func (b *Builder) Code(s string) *Builder   { return b.write(s, "code") }

func (b *Builder) Line() *Builder { return b.write("\n", "") }

func (b *Builder) Result() ParseResult {
	return ParseResult{
		Text:     strings.TrimRight(b.sb.String(), " \n"),
		Entities: b.entities,
	}
}

// Notification renders a bold title above a plain body.
func Notification(title, body string) ParseResult {
	var b Builder
	b.Bold(title)
	if body != "" {
		b.Line().Line().Text(body)
	}
	return b.Result()
}
