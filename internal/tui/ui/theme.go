package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds the colors of the terminal UI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	MutedColor        tcell.Color
	BorderColor       tcell.Color
	TableHeaderFg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	UnreadColor       tcell.Color
	TickReadColor     tcell.Color
	OutgoingColor     tcell.Color
	IncomingColor     tcell.Color
	MissedColor       tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DefaultTheme returns the dark green theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.NewHexColor(0xE9EDEF),
		MutedColor:        tcell.NewHexColor(0x667781),
		BorderColor:       tcell.NewHexColor(0x128C7E),
		TableHeaderFg:     tcell.ColorWhite,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.NewHexColor(0x25D366),
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.NewHexColor(0x25D366),
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.NewHexColor(0x075E54),
		MenuKeyColor:      tcell.NewHexColor(0x34B7F1),
		NumericKeyColor:   tcell.NewHexColor(0x00A884),
		TitleColor:        tcell.NewHexColor(0x25D366),
		CounterColor:      tcell.ColorPapayaWhip,
		UnreadColor:       tcell.NewHexColor(0x25D366),
		TickReadColor:     tcell.NewHexColor(0x34B7F1),
		OutgoingColor:     tcell.NewHexColor(0x00A884),
		IncomingColor:     tcell.NewHexColor(0xE9EDEF),
		MissedColor:       tcell.ColorOrangeRed,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.NewHexColor(0x34B7F1),
	}
}

// Tag returns c as a tview color tag value, e.g. "#25d366".
func Tag(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
