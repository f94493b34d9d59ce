// Package card encodes a user's profile as a shareable contact card and
// renders it as a QR code.
package card

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/aboucelia/chatapp/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// Scheme prefixes every contact card URI.
const Scheme = "chatapp"

// URI returns the contact card for u, e.g.
// chatapp://contact/<id>?avatar=2&name=Mona.
func URI(u model.User) string {
	q := url.Values{}
	q.Set("name", u.Name)
	q.Set("avatar", strconv.Itoa(u.Avatar))
	if u.Phone != "" {
		q.Set("phone", u.Phone)
	}
	return (&url.URL{
		Scheme:   Scheme,
		Host:     "contact",
		Path:     "/" + u.ID,
		RawQuery: q.Encode(),
	}).String()
}

// Parse decodes a contact card produced by URI.
func Parse(raw string) (model.User, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return model.User{}, err
	}
	if u.Scheme != Scheme || u.Host != "contact" {
		return model.User{}, &FormatError{URI: raw}
	}
	id := strings.TrimPrefix(u.Path, "/")
	if id == "" {
		return model.User{}, &FormatError{URI: raw}
	}
	q := u.Query()
	avatar, _ := strconv.Atoi(q.Get("avatar"))
	return model.User{
		ID:     id,
		Name:   q.Get("name"),
		Avatar: avatar,
		Phone:  q.Get("phone"),
	}, nil
}

// FormatError reports a string that is not a contact card.
type FormatError struct {
	URI string
}

func (e *FormatError) Error() string {
	return "not a contact card: " + e.URI
}

// Render converts content to a compact QR code using Unicode half-block
// characters. Two bitmap rows become one terminal line.
func Render(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", err
	}
	qr.DisableBorder = false

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('\u2588') // █
			case top:
				sb.WriteRune('\u2580') // ▀
			case bot:
				sb.WriteRune('\u2584') // ▄
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}

// WritePNG writes content as a size×size PNG QR code to path.
func WritePNG(content, path string, size int) error {
	return qrcode.WriteFile(content, qrcode.Medium, size, path)
}
