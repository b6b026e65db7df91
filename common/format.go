package common

import (
	"fmt"
	"strconv"
	"time"
)

var shortMonths = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// FormatPrice renders whole Rupiah the way the id-ID locale does:
// "Rp 1.250.000".
func FormatPrice(price int64) string {
	sign := ""
	if price < 0 {
		sign = "-"
		price = -price
	}

	digits := strconv.FormatInt(price, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return sign + "Rp " + string(out)
}

// FormatTimeAgo renders t relative to now in Indonesian. Anything a week or
// older falls back to a short date.
func FormatTimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	secs := int64(now.Sub(t) / time.Second)
	if secs < 60 {
		return "Baru saja"
	}
	mins := secs / 60
	if mins < 60 {
		return fmt.Sprintf("%d menit yang lalu", mins)
	}
	hours := mins / 60
	if hours < 24 {
		return fmt.Sprintf("%d jam yang lalu", hours)
	}
	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%d hari yang lalu", days)
	}
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}
