package parsers

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var (
	phonePattern = regexp.MustCompile(`^\+?\d{8,15}$`)
	cinPattern   = regexp.MustCompile(`^[A-Z]{1,2}\d{3,8}$`)
	yearOnly     = regexp.MustCompile(`^\d{4}$`)
	phoneNoise   = strings.NewReplacer(" ", "", "\u00a0", "", ".", "", "-", "", "(", "", ")", "", "/", "")
)

// NormalizePhone strips separators and returns the number in a canonical
// form. Moroccan numbers whose leading zero was eaten by a spreadsheet get
// it back; 00 and bare 212 prefixes become +.
func NormalizePhone(s string) (string, error) {
	p := phoneNoise.Replace(strings.TrimSpace(s))
	if p == "" {
		return "", nil
	}
	switch {
	case strings.HasPrefix(p, "00"):
		p = "+" + p[2:]
	case strings.HasPrefix(p, "212") && len(p) == 12:
		p = "+" + p
	case len(p) == 9 && strings.ContainsAny(p[:1], "567"):
		p = "0" + p
	}
	if !phonePattern.MatchString(p) {
		return "", fmt.Errorf("numéro de téléphone invalide : %q", s)
	}
	return p, nil
}

// NormalizeCIN uppercases a national identity card number and checks its shape.
func NormalizeCIN(s string) (string, error) {
	c := strings.ToUpper(strings.NewReplacer(" ", "", "-", "", ".", "").Replace(strings.TrimSpace(s)))
	if c == "" {
		return "", nil
	}
	if !cinPattern.MatchString(c) {
		return "", fmt.Errorf("CIN invalide : %q", s)
	}
	return c, nil
}

// NormalizeSexe maps the usual spellings onto M or F.
func NormalizeSexe(s string) (string, error) {
	switch NormalizeHeader(s) {
	case "":
		return "", nil
	case "m", "h", "homme", "masculin", "male", "garcon":
		return "M", nil
	case "f", "femme", "feminin", "female", "fille":
		return "F", nil
	}
	return "", fmt.Errorf("sexe invalide : %q (M ou F attendu)", s)
}

var dateLayouts = []string{
	isoDate,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
}

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts ISO and day-first dates as well as Excel serial numbers
// and returns YYYY-MM-DD. A bare four digit number is a year, not a date.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if yearOnly.MatchString(s) {
		return "", fmt.Errorf("date incomplète, jour et mois manquants : %q", s)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		days := int(math.Floor(serial))
		return excelEpoch.AddDate(0, 0, days).Format(isoDate), nil
	}
	return "", fmt.Errorf("date invalide : %q", s)
}

// IsISODate reports whether s is a valid YYYY-MM-DD date.
func IsISODate(s string) bool {
	_, err := time.Parse(isoDate, s)
	return err == nil
}

// NormalizeDecision maps the usual spellings onto accepte, en_attente or refuse.
// An empty value stays empty.
func NormalizeDecision(s string) (string, error) {
	switch NormalizeHeader(s) {
	case "":
		return "", nil
	case "accepte", "acceptee", "accepted", "oui", "ok", "retenu", "retenue":
		return "accepte", nil
	case "en attente", "attente", "waiting", "liste d attente":
		return "en_attente", nil
	case "refuse", "refusee", "refused", "non", "rejete", "rejetee":
		return "refuse", nil
	}
	return "", fmt.Errorf("décision invalide : %q", s)
}

// NormalizeCallStatus maps a call status code or label onto its code.
func NormalizeCallStatus(s string) (string, error) {
	switch strings.ReplaceAll(NormalizeHeader(s), " ", "_") {
	case "":
		return "", nil
	case "a_appeler", "nouveau":
		return "a_appeler", nil
	case "repondu", "a_repondu":
		return "repondu", nil
	case "ne_repond_pas", "pas_de_reponse":
		return "ne_repond_pas", nil
	case "injoignable":
		return "injoignable", nil
	case "rappeler", "a_rappeler":
		return "rappeler", nil
	case "refuse", "refus":
		return "refuse", nil
	case "confirme", "confirmee":
		return "confirme", nil
	}
	return "", fmt.Errorf("statut d'appel invalide : %q", s)
}
