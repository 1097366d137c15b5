package parsers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Prénom":              "prenom",
		"  N° CIN ":           "n cin",
		"Date de naissance":   "date de naissance",
		"TÉL.":                "tel",
		"situation_familiale": "situation familiale",
		"---":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestMapHeader(t *testing.T) {
	aliases := Aliases{"nom": "nom", "prenom": "prenom", "tel": "telephone", "gsm": "telephone"}

	cols, ignored, err := MapHeader([]string{"Nom", "Prénom", "GSM", "Tél", "Remarque"}, aliases, []string{"nom"})
	require.NoError(t, err)
	assert.Equal(t, HeaderMap{"nom": 0, "prenom": 1, "telephone": 2}, cols)
	assert.Equal(t, []string{"Tél", "Remarque"}, ignored)

	_, _, err = MapHeader([]string{"Prénom"}, aliases, []string{"nom", "telephone"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nom, telephone")

	row := []string{" Alaoui ", "Sara"}
	assert.Equal(t, "Alaoui", cols.Get(row, "nom"))
	assert.Equal(t, "", cols.Get(row, "telephone"))
	assert.Equal(t, "", cols.Get(row, "ville"))
}

func TestReadCSVSniffsDelimiterAndSkipsBOM(t *testing.T) {
	data := "\xEF\xBB\xBFnom;prenom;ville\nAlaoui;Sara;Rabat\n;;\nBennani;Omar;\"Fès, médina\"\n"
	s, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"nom", "prenom", "ville"}, s.Header)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, 2, s.Rows[0].Line)
	assert.True(t, s.Rows[1].Blank())
	assert.Equal(t, Row{Line: 4, Cells: []string{"Bennani", "Omar", "Fès, médina"}}, s.Rows[2])
}

func TestReadCSVDecodesWindows1252(t *testing.T) {
	// "Prénom,Ville\nSara,Fès" encoded in Windows-1252.
	data := []byte("Pr\xe9nom,Ville\nSara,F\xe8s\n")
	s, err := ReadCSV(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Prénom", s.Header[0])
	assert.Equal(t, "Fès", s.Rows[0].Cells[1])
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestReadSheetXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nom", "Date de naissance", "Téléphone"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Alaoui", 32874, 612345678}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	s, err := ReadSheet("liste.XLSX", buf, "")
	require.NoError(t, err)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "Alaoui", s.Rows[0].Cells[0])

	day, err := ParseDate(s.Rows[0].Cells[1])
	require.NoError(t, err)
	assert.Equal(t, "1990-01-01", day)

	phone, err := NormalizePhone(s.Rows[0].Cells[2])
	require.NoError(t, err)
	assert.Equal(t, "0612345678", phone)
}

func TestReadSheetRejectsUnknownExtension(t *testing.T) {
	_, err := ReadSheet("liste.pdf", strings.NewReader("x"), "")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
		wantErr  bool
	}{
		{"06 12 34 56 78", "0612345678", false},
		{"+212 6-12-34-56-78", "+212612345678", false},
		{"00212612345678", "+212612345678", false},
		{"212612345678", "+212612345678", false},
		{"612345678", "0612345678", false},
		{"", "", false},
		{"12-34", "", true},
		{"06abc", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeCIN(t *testing.T) {
	got, err := NormalizeCIN(" ab 123456 ")
	require.NoError(t, err)
	assert.Equal(t, "AB123456", got)

	got, err = NormalizeCIN("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NormalizeCIN("123456")
	assert.Error(t, err)
}

func TestNormalizeSexeAndDecision(t *testing.T) {
	for in, want := range map[string]string{"Homme": "M", "f": "F", "Féminin": "F", "": ""} {
		got, err := NormalizeSexe(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := NormalizeSexe("X")
	assert.Error(t, err)

	for in, want := range map[string]string{"Accepté": "accepte", "EN ATTENTE": "en_attente", "en_attente": "en_attente", "refusée": "refuse", "": ""} {
		got, err := NormalizeDecision(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err = NormalizeDecision("peut-être")
	assert.Error(t, err)

	got, err := NormalizeCallStatus("Ne répond pas")
	require.NoError(t, err)
	assert.Equal(t, "ne_repond_pas", got)
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"1990-06-15":          "1990-06-15",
		"15/06/1990":          "1990-06-15",
		"5/6/1990":            "1990-06-05",
		"15.06.1990":          "1990-06-15",
		"1990-06-15 00:00:00": "1990-06-15",
		"33039":               "1990-06-15",
		"33039.5":             "1990-06-15",
	}
	for in, want := range cases {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDate("31/02/1990")
	assert.Error(t, err)

	for _, in := range []string{"1990", " 2001 ", "0815"} {
		_, err := ParseDate(in)
		assert.ErrorContains(t, err, "date incomplète", in)
	}
	assert.True(t, IsISODate("2024-02-29"))
	assert.False(t, IsISODate("2023-02-29"))
}
