// Package kafala manages guardianship case files and their scanned judgment.
package kafala

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"medassist/campaign"
	"medassist/database"
	"medassist/mappers"
	"medassist/model"
	"medassist/parsers"
	"medassist/respond"
)

type kafalaInput struct {
	EnfantNom           string  `json:"enfantNom"`
	EnfantPrenom        string  `json:"enfantPrenom"`
	EnfantSexe          string  `json:"enfantSexe"`
	EnfantDateNaissance *string `json:"enfantDateNaissance"`
	KafilNom            string  `json:"kafilNom"`
	KafilPrenom         string  `json:"kafilPrenom"`
	KafilCin            string  `json:"kafilCin"`
	KafilTelephone      string  `json:"kafilTelephone"`
	KafilAdresse        string  `json:"kafilAdresse"`
	NumeroJugement      string  `json:"numeroJugement"`
	DateJugement        *string `json:"dateJugement"`
	Tribunal            string  `json:"tribunal"`
	Observations        string  `json:"observations"`
}

func (in kafalaInput) apply(k *model.Kafala) {
	k.EnfantNom = strings.TrimSpace(in.EnfantNom)
	k.EnfantPrenom = strings.TrimSpace(in.EnfantPrenom)
	k.EnfantSexe = in.EnfantSexe
	k.EnfantDateNaissance = in.EnfantDateNaissance
	k.KafilNom = strings.TrimSpace(in.KafilNom)
	k.KafilPrenom = strings.TrimSpace(in.KafilPrenom)
	k.KafilCin = in.KafilCin
	k.KafilTelephone = in.KafilTelephone
	k.KafilAdresse = strings.TrimSpace(in.KafilAdresse)
	k.NumeroJugement = strings.TrimSpace(in.NumeroJugement)
	k.DateJugement = in.DateJugement
	k.Tribunal = strings.TrimSpace(in.Tribunal)
	k.Observations = strings.TrimSpace(in.Observations)
}

// Validate normalizes k in place.
func Validate(k *model.Kafala, today string) model.ValidationErrors {
	errs := model.ValidationErrors{}
	required := []struct {
		field, value, label string
	}{
		{"enfantNom", k.EnfantNom, "Le nom de l'enfant est obligatoire."},
		{"enfantPrenom", k.EnfantPrenom, "Le prénom de l'enfant est obligatoire."},
		{"kafilNom", k.KafilNom, "Le nom du kafil est obligatoire."},
		{"kafilPrenom", k.KafilPrenom, "Le prénom du kafil est obligatoire."},
	}
	for _, r := range required {
		if r.value == "" {
			errs.Add(r.field, r.label)
		}
	}

	cin, err := parsers.NormalizeCIN(k.KafilCin)
	switch {
	case err != nil:
		errs.Add("kafilCin", "Format de CIN invalide.")
	case cin == "":
		errs.Add("kafilCin", "La CIN du kafil est obligatoire.")
	default:
		k.KafilCin = cin
	}
	if tel, err := parsers.NormalizePhone(k.KafilTelephone); err != nil {
		errs.Add("kafilTelephone", "Numéro de téléphone invalide.")
	} else {
		k.KafilTelephone = tel
	}
	if sexe, err := parsers.NormalizeSexe(k.EnfantSexe); err != nil {
		errs.Add("enfantSexe", "Le sexe doit être M ou F.")
	} else {
		k.EnfantSexe = sexe
	}

	k.EnfantDateNaissance = checkDate(k.EnfantDateNaissance, today, "enfantDateNaissance", "Date de naissance", errs)
	k.DateJugement = checkDate(k.DateJugement, today, "dateJugement", "Date du jugement", errs)
	return errs
}

func checkDate(d *string, today, field, label string, errs model.ValidationErrors) *string {
	if d == nil {
		return nil
	}
	iso, err := parsers.ParseDate(*d)
	switch {
	case err != nil:
		errs.Add(field, label+" invalide.")
		return d
	case iso == "":
		return nil
	case iso > today:
		errs.Add(field, label+" dans le futur.")
	}
	return &iso
}

func ListKafalasHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := model.KafalaFilters{Query: r.URL.Query().Get("q"), Paging: respond.Paging(r)}
		ks, total, err := database.ListKafalas(r.Context(), db, f)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, model.NewPage(mappers.ToKafalaViews(ks), total, f.Paging))
	}
}

func GetKafalaHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		k, err := database.GetKafala(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToKafalaView(*k))
	}
}

func CreateKafalaHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var in kafalaInput
		if !respond.Decode(w, r, &in) {
			return
		}
		var k model.Kafala
		in.apply(&k)
		if errs := Validate(&k, campaign.CurrentDay()); errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer tx.Rollback()
		if err := database.CreateKafalaInTx(ctx, tx, &k); err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := tx.Commit(); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, mappers.ToKafalaView(k))
	}
}

func UpdateKafalaHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		var in kafalaInput
		if !respond.Decode(w, r, &in) {
			return
		}
		k, err := database.GetKafala(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		in.apply(k)
		if errs := Validate(k, campaign.CurrentDay()); errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		if err := database.UpdateKafala(ctx, db, k); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToKafalaView(*k))
	}
}

// DeleteKafalaHandler soft deletes the record; the stored PDF stays on disk
// so a restore gets it back.
func DeleteKafalaHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if err := database.SoftDelete(r.Context(), db, "kafalas", id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Kafala supprimée.")
	}
}

func RestoreKafalaHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		err := database.Restore(r.Context(), db, "kafalas", id)
		if errors.Is(err, database.ErrNotFound) {
			respond.Message(w, http.StatusNotFound, "Aucune kafala supprimée avec cet identifiant.")
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Kafala restaurée.")
	}
}
