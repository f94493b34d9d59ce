package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// AvatarColors is the fixed avatar palette, indexed by User.Avatar.
var AvatarColors = []string{
	"#25D366",
	"#128C7E",
	"#075E54",
	"#34B7F1",
	"#00A884",
	"#667781",
}

// AvatarColor returns the palette color for an avatar index.
func AvatarColor(index int) string {
	n := len(AvatarColors)
	return AvatarColors[((index%n)+n)%n]
}

// Initials returns up to two upper-cased leading letters of name.
func Initials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Split(name, " ") {
		if word == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		count++
		if count == 2 {
			break
		}
	}
	return b.String()
}
