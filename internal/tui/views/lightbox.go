package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// Lightbox shows an image attachment's link as a QR code so it can be
// opened on a phone, along with the plain URL.
type Lightbox struct {
	*tview.TextView
	theme *ui.Theme
}

// NewLightbox creates the image lightbox.
func NewLightbox(theme *ui.Theme) *Lightbox {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitleColor(theme.TitleColor)

	return &Lightbox{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (lb *Lightbox) Name() string { return "Image" }

// Hints implements ui.Component.
func (lb *Lightbox) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "o", Description: "Download"},
		{Key: "Esc", Description: "Close"},
	}
}

// Show renders the QR code for url under title.
func (lb *Lightbox) Show(title, url string) {
	lb.Clear()
	lb.SetTitle(" " + tview.Escape(title) + " ")
	_, _ = fmt.Fprintf(lb, "\n%s\n[::u]%s[-:-:-]\n\n[::d]scan to open, o to download[-:-:-]",
		renderQR(url), tview.Escape(url))
}

// renderQR draws content as a QR code using half-block characters, two
// modules per text row.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "(QR generation failed: " + err.Error() + ")"
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
