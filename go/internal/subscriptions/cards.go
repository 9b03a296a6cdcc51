package subscriptions

import (
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/validation"
)

// CardRequest is a card as typed into the add-card form
type CardRequest struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVV    string `json:"cvv"`
}

func digitsOnly(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", false
		}
	}
	return b.String(), true
}

// luhn reports whether number passes the card checksum.
func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// cardType guesses the network from the leading digits.
func cardType(number string) string {
	prefix := func(n int) int {
		v, _ := strconv.Atoi(number[:n])
		return v
	}
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case prefix(2) >= 51 && prefix(2) <= 55, prefix(4) >= 2221 && prefix(4) <= 2720:
		return "mastercard"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	default:
		return "card"
	}
}

// parseExpiry reads MM/YY and returns month and four-digit year.
func parseExpiry(s string) (int, int, bool) {
	mm, yy, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || len(mm) != 2 || len(yy) != 2 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(yy)
	if err != nil {
		return 0, 0, false
	}
	return month, 2000 + year, true
}

// validateCard checks the form and returns the card it describes.
func validateCard(req CardRequest, now time.Time) (models.PaymentMethod, error) {
	errs := validation.Errors{}

	number, ok := digitsOnly(req.Number)
	switch {
	case strings.TrimSpace(req.Number) == "":
		errs.Add("number", "Card number is required")
	case !ok || len(number) < 13 || len(number) > 19 || !luhn(number):
		errs.Add("number", "Please enter a valid card number")
	}

	month, year, ok := parseExpiry(req.Expiry)
	switch {
	case !ok:
		errs.Add("expiry", "Expiry date must be in MM/YY format")
	case !now.Before(time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)):
		errs.Add("expiry", "Card has expired")
	}

	cvv, ok := digitsOnly(req.CVV)
	if !ok || len(cvv) < 3 || len(cvv) > 4 || cvv != strings.TrimSpace(req.CVV) {
		errs.Add("cvv", "CVV must be 3 or 4 digits")
	}

	if err := errs.Err(); err != nil {
		return models.PaymentMethod{}, err
	}
	return models.PaymentMethod{
		Type:        cardType(number),
		Last4:       number[len(number)-4:],
		ExpiryMonth: strconv.Itoa(100 + month)[1:],
		ExpiryYear:  strconv.Itoa(year),
	}, nil
}
