// Package render produces the printable HTML documents of the back office.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"medassist/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"date": frenchDate,
	"sexe": sexLabel,
}).ParseFS(templateFS, "templates/*.html"))

// frenchDate formats an ISO date as DD/MM/YYYY; a missing date prints a dash.
func frenchDate(d *string) string {
	if d == nil || len(*d) < 10 {
		return "-"
	}
	s := *d
	return s[8:10] + "/" + s[5:7] + "/" + s[0:4]
}

func sexLabel(s string) string {
	switch s {
	case "M":
		return "Masculin"
	case "F":
		return "Féminin"
	}
	return "-"
}

// KafalaFiche renders the printable case file of a kafala.
func KafalaFiche(k model.Kafala, printedOn string) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		K         model.Kafala
		PrintedOn string
	}{k, frenchDate(&printedOn)}
	if err := templates.ExecuteTemplate(&buf, "kafala_fiche.html", data); err != nil {
		return nil, fmt.Errorf("render kafala fiche %s: %w", k.Reference, err)
	}
	return buf.Bytes(), nil
}
