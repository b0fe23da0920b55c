package postprocess

import (
	"regexp"
	"strings"
)

// postalCityRe matches "1180 Wien": a 4 or 5 digit postal code, whitespace,
// then a run of letters, dots, hyphens and spaces.
var postalCityRe = regexp.MustCompile(`\b(\d{4,5})\s+([A-Za-zÄÖÜäöüß.\- ]+)`)

type AddressParts struct {
	Street     string
	PostalCode string
	City       string
}

// ExtractAddressParts splits a free-form venue address. The first comma
// separated segment is the street. Postal code and city are looked for in
// the second segment (or the address minus the street if there is none),
// then in the whole address. Fields that cannot be found are empty.
func ExtractAddressParts(addr string) AddressParts {
	var parts []string
	for _, p := range strings.Split(addr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var out AddressParts
	if len(parts) > 0 {
		out.Street = parts[0]
	}

	source := addr
	switch {
	case len(parts) > 1:
		source = parts[1]
	case out.Street != "":
		source = strings.Replace(addr, out.Street, "", 1)
	}

	if plz, city, ok := findPostalCity(source); ok {
		out.PostalCode, out.City = plz, city
	} else if plz, city, ok := findPostalCity(addr); ok {
		out.PostalCode, out.City = plz, city
	}
	return out
}

// findPostalCity returns the first match whose city is not empty once
// trailing punctuation is dropped.
func findPostalCity(s string) (plz, city string, ok bool) {
	for _, m := range postalCityRe.FindAllStringSubmatch(s, -1) {
		city := strings.TrimRight(m[2], " .-")
		if city = strings.TrimSpace(city); city != "" {
			return m[1], city, true
		}
	}
	return "", "", false
}
