package importer

import "medassist/parsers"

// Column titles are compared after parsers.NormalizeHeader, so the keys
// below are lowercase ascii with single spaces.
var beneficiaryAliases = parsers.Aliases{
	"nom":               "nom",
	"nom de famille":    "nom",
	"last name":         "nom",
	"prenom":            "prenom",
	"first name":        "prenom",
	"sexe":              "sexe",
	"genre":             "sexe",
	"date de naissance": "dateNaissance",
	"date naissance":    "dateNaissance",
	"ddn":               "dateNaissance",
	"ne le":             "dateNaissance",
	"cin":               "cin",
	"n cin":             "cin",
	"no cin":            "cin",
	"num cin":           "cin",
	"numero cin":        "cin",
	"cni":               "cin",
	"telephone":         "telephone",
	"tel":               "telephone",
	"tele":              "telephone",
	"gsm":               "telephone",
	"portable":          "telephone",
	"mobile":            "telephone",
	"adresse":           "adresse",
	"ville":             "ville",
	"commune":           "ville",
	"situation":         "situation",
	"situation sociale": "situation",
	"type":              "typeAssistance",
	"type assistance":   "typeAssistance",
	"type d assistance": "typeAssistance",
	"cote":              "cote",
	"oreille":           "cote",
	"decision":          "decision",
	"statut":            "decision",
	"remarques":         "remarques",
	"remarque":          "remarques",
	"observations":      "remarques",
	"commentaire":       "remarques",
}

var participantAliases = parsers.Aliases{
	"nom":            "nom",
	"nom de famille": "nom",
	"last name":      "nom",
	"prenom":         "prenom",
	"first name":     "prenom",
	"telephone":      "telephone",
	"tel":            "telephone",
	"tele":           "telephone",
	"gsm":            "telephone",
	"portable":       "telephone",
	"mobile":         "telephone",
	"adresse":        "adresse",
	"ville":          "ville",
	"commune":        "ville",
	"statut":         "statutAppel",
	"statut appel":   "statutAppel",
	"statut d appel": "statutAppel",
	"appel":          "statutAppel",
	"commentaire":    "commentaire",
	"remarques":      "commentaire",
	"observations":   "commentaire",
}
