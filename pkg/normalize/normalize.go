// Package normalize implements the format-normalization half of the
// Extractor Interface's validate(record) → record contract: phone
// numbers to E.164, UK postcodes to their canonical spaced form, and
// coordinate range checking. Grounded on
// original_source/engine/extraction/extractors/open_charge_map_extractor.py's
// validate() and its format_phone_uk/format_postcode_uk helpers.
package normalize

import (
	"strings"
)

// PhoneE164UK reformats a UK phone number to E.164 (+44...). Already
// E.164 numbers pass through unchanged. Numbers that don't resolve to
// a plausible UK number return ok=false so the caller can drop the
// field rather than persist garbage.
func PhoneE164UK(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "+") {
		digits := digitsOnly(s[1:])
		if len(digits) < 8 {
			return "", false
		}
		return "+" + digits, true
	}

	digits := digitsOnly(s)
	switch {
	case strings.HasPrefix(digits, "44"):
		// already country-coded, just missing the +
	case strings.HasPrefix(digits, "0"):
		digits = "44" + digits[1:]
	default:
		return "", false
	}
	if len(digits) < 10 {
		return "", false
	}
	return "+" + digits, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostcodeUK reformats a UK postcode into its canonical "OUTCODE
// INCODE" form (inward code always the trailing 3 characters), e.g.
// "eh88as" → "EH8 8AS". Strings too short to be a postcode return
// ok=false.
func PostcodeUK(raw string) (string, bool) {
	compact := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if len(compact) < 5 || len(compact) > 7 {
		return "", false
	}
	outcode := compact[:len(compact)-3]
	incode := compact[len(compact)-3:]
	return outcode + " " + incode, true
}

// ValidLatitude reports whether lat falls within ±90.
func ValidLatitude(lat float64) bool { return lat >= -90 && lat <= 90 }

// ValidLongitude reports whether lng falls within ±180.
func ValidLongitude(lng float64) bool { return lng >= -180 && lng <= 180 }

// Coordinates validates and returns record's latitude/longitude in
// place, dropping either key whose value is out of range rather than
// retaining an invalid coordinate (spec §4.5).
func Coordinates(record map[string]interface{}) {
	if lat, ok := asFloat(record["latitude"]); ok {
		if !ValidLatitude(lat) {
			delete(record, "latitude")
		}
	}
	if lng, ok := asFloat(record["longitude"]); ok {
		if !ValidLongitude(lng) {
			delete(record, "longitude")
		}
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Phone normalizes record's "phone" field in place, dropping it if it
// can't be resolved to E.164.
func Phone(record map[string]interface{}) {
	raw, ok := record["phone"].(string)
	if !ok || raw == "" {
		return
	}
	if formatted, ok := PhoneE164UK(raw); ok {
		record["phone"] = formatted
	} else {
		delete(record, "phone")
	}
}

// Postcode normalizes record's "postcode" field in place, dropping it
// if it can't be resolved to a canonical UK postcode.
func Postcode(record map[string]interface{}) {
	raw, ok := record["postcode"].(string)
	if !ok || raw == "" {
		return
	}
	if formatted, ok := PostcodeUK(raw); ok {
		record["postcode"] = formatted
	} else {
		delete(record, "postcode")
	}
}

// Record applies every field normalization against record in place:
// phone → E.164, postcode → canonical UK form, coordinates range
// checked and dropped if invalid.
func Record(record map[string]interface{}) {
	Phone(record)
	Postcode(record)
	Coordinates(record)
}
