package checkout

import "strings"

func digits(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if b.Len() >= max {
				break
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCardNumber 只留數字，最多16碼，每4碼一組
func FormatCardNumber(in string) string {
	d := digits(in, 16)
	var b strings.Builder
	for i, r := range d {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry MMYY => MM/YY
func FormatExpiry(in string) string {
	d := digits(in, 4)
	if len(d) <= 2 {
		return d
	}
	return d[:2] + "/" + d[2:]
}

func FormatCVV(in string) string {
	return digits(in, 4)
}

// MaskCardNumber 只顯示末四碼
func MaskCardNumber(in string) string {
	d := digits(in, 16)
	if len(d) <= 4 {
		return d
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}
