package beneficiary

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"medassist/database"
	"medassist/mappers"
	"medassist/model"
	"medassist/respond"
)

var exportHeader = []string{
	"ID", "Nom", "Prénom", "Sexe", "Date de naissance", "Âge", "CIN", "Téléphone",
	"Adresse", "Ville", "Situation", "Type d'assistance", "Côté", "Décision", "Remarques",
}

func exportRecord(v mappers.BeneficiaryView) []string {
	age := ""
	if v.Age != nil {
		age = strconv.Itoa(*v.Age)
	}
	birth := ""
	if v.DateNaissance != nil {
		birth = *v.DateNaissance
	}
	return []string{
		strconv.FormatInt(v.ID, 10), v.Nom, v.Prenom, v.Sexe, birth, age, v.Cin, v.Telephone,
		v.Adresse, v.Ville, v.SituationLibelle, v.TypeAssistanceLibelle, v.Cote, v.DecisionLibelle, v.Remarques,
	}
}

// WriteCSV renders the rows as UTF-8 CSV with a BOM so spreadsheet tools pick the encoding.
func WriteCSV(views []mappers.BeneficiaryView) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	cw := csv.NewWriter(&buf)
	cw.UseCRLF = true
	if err := cw.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, v := range views {
		if err := cw.Write(exportRecord(v)); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func WriteXLSX(views []mappers.BeneficiaryView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bénéficiaires"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, v := range views {
		rec := exportRecord(v)
		row := make([]interface{}, len(rec))
		for j, c := range rec {
			row[j] = c
		}
		row[0] = v.ID
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportBeneficiariesHandler downloads the beneficiaries of the {id}
// campaign. format=xlsx selects Excel, anything else CSV.
func ExportBeneficiariesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		decision := r.URL.Query().Get("decision")
		if decision != "" && !model.Decision(decision).Valid() {
			respond.Message(w, http.StatusBadRequest, "Décision inconnue : "+decision)
			return
		}

		c, err := database.GetCampaign(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		rows, err := database.ListCampaignBeneficiaries(ctx, db, id, decision)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		views := mappers.ToBeneficiaryViews(rows, today())

		var (
			body        []byte
			contentType string
			ext         string
		)
		if r.URL.Query().Get("format") == "xlsx" {
			body, err = WriteXLSX(views)
			contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
		} else {
			body, err = WriteCSV(views)
			contentType, ext = "text/csv; charset=utf-8", "csv"
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		filename := fmt.Sprintf("beneficiaires_%s.%s", c.Reference, ext)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
		w.Write(body)
	}
}
