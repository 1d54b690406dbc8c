package tourvisor

import (
	"strconv"
	"strings"
	"unicode"
)

// Hotel is one search result as the API returns it. Price and stars come
// back as free-form strings and are normalized by the accessor methods.
type Hotel struct {
	Name        string `xml:"hotelname"`
	Price       string `xml:"price"`
	Stars       string `xml:"hotelstars"`
	Description string `xml:"hoteldescription"`
	DetailsLink string `xml:"fulldesclink"`
	Country     string `xml:"countryname"`
	Tours       []Tour `xml:"tours>tour"`
}

// Tour is one concrete departure option inside a hotel result.
type Tour struct {
	FlyDate string `xml:"flydate"`
}

// StarsCount parses the star rating, returning 0 when it is not numeric.
func (h Hotel) StarsCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(h.Stars))
	if err != nil {
		return 0
	}
	return n
}

// PriceValue parses the price by keeping only digits, so values like
// "52 300 руб." order correctly. Unparseable prices return 0.
func (h Hotel) PriceValue() int {
	var digits strings.Builder
	for _, r := range h.Price {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

// FlyDates joins the departure dates of all tours for display.
func (h Hotel) FlyDates() string {
	dates := make([]string, 0, len(h.Tours))
	for _, t := range h.Tours {
		if t.FlyDate != "" {
			dates = append(dates, t.FlyDate)
		}
	}
	return strings.Join(dates, ", ")
}
