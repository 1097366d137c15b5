package kafala

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medassist/automation"
	"medassist/campaign"
	"medassist/config"
	"medassist/database"
	"medassist/mappers"
	"medassist/render"
	"medassist/respond"
)

const documentDir = "kafala"

// multipartSlack is the room left above the file limit for the multipart envelope.
const multipartSlack = 1 << 20

var errNotPDF = errors.New("document is not a pdf")

// storeDocument writes a PDF under <uploadDir>/kafala with a random name and
// returns the path relative to uploadDir.
func storeDocument(uploadDir string, src io.Reader) (string, int64, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", 0, err
	}
	head = head[:n]
	if http.DetectContentType(head) != "application/pdf" {
		return "", 0, errNotPDF
	}

	dir := filepath.Join(uploadDir, documentDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("create %s: %w", dir, err)
	}
	rel := filepath.Join(documentDir, uuid.NewString()+".pdf")
	dst, err := os.OpenFile(filepath.Join(uploadDir, rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), src))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(filepath.Join(uploadDir, rel))
		return "", 0, err
	}
	return rel, size, nil
}

func UploadDocumentHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		k, err := database.GetKafala(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		cfg := config.GetConfig()
		limit := cfg.MaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)
		file, header, err := r.FormFile("document")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respond.Message(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("Le document dépasse la taille maximale de %d Mo.", cfg.MaxUploadMB))
				return
			}
			respond.Message(w, http.StatusBadRequest, "Le champ « document » est manquant.")
			return
		}
		defer file.Close()
		if header.Size > limit {
			respond.Message(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Le document dépasse la taille maximale de %d Mo.", cfg.MaxUploadMB))
			return
		}

		rel, size, err := storeDocument(cfg.UploadDir, file)
		if errors.Is(err, errNotPDF) {
			respond.Message(w, http.StatusUnsupportedMediaType, "Seuls les fichiers PDF sont acceptés.")
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if err := database.SetKafalaDocument(ctx, db, id, rel, filepath.Base(header.Filename), size); err != nil {
			os.Remove(filepath.Join(cfg.UploadDir, rel))
			respond.Error(w, r, err)
			return
		}
		if k.HasDocument() {
			if err := os.Remove(filepath.Join(cfg.UploadDir, k.DocumentChemin)); err != nil && !os.IsNotExist(err) {
				zap.L().Warn("old kafala document not removed", zap.String("path", k.DocumentChemin), zap.Error(err))
			}
		}

		k, err = database.GetKafala(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToKafalaView(*k))
	}
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}

func DownloadDocumentHandler(db *sqlx.DB) http.HandlerFunc {
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
		if !k.HasDocument() {
			respond.Message(w, http.StatusNotFound, "Aucun document n'est joint à cette kafala.")
			return
		}
		f, err := os.Open(filepath.Join(config.GetConfig().UploadDir, k.DocumentChemin))
		if os.IsNotExist(err) {
			zap.L().Error("kafala document missing on disk", zap.Int64("kafalaId", id), zap.String("path", k.DocumentChemin))
			respond.Message(w, http.StatusNotFound, "Le fichier du document est introuvable.")
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer f.Close()

		name := k.DocumentNom
		if name == "" {
			name = k.Reference + ".pdf"
		}
		attachment(w, "application/pdf", name)
		w.Header().Set("Content-Length", strconv.FormatInt(k.DocumentTaille, 10))
		io.Copy(w, f)
	}
}

// FicheHandler serves the printable case file as HTML, or as PDF through printPDF.
func FicheHandler(db *sqlx.DB, printPDF automation.Printer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "html"
		}
		if format != "html" && format != "pdf" {
			respond.Message(w, http.StatusBadRequest, "Format inconnu : "+format+" (html ou pdf).")
			return
		}
		k, err := database.GetKafala(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		html, err := render.KafalaFiche(*k, campaign.CurrentDay())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if format == "html" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(html)
			return
		}
		pdf, err := printPDF(ctx, html)
		if err != nil {
			zap.L().Error("kafala fiche pdf failed", zap.Int64("kafalaId", id), zap.Error(err))
			respond.Message(w, http.StatusServiceUnavailable, "Impossible de générer le PDF : navigateur indisponible.")
			return
		}
		attachment(w, "application/pdf", "fiche_"+k.Reference+".pdf")
		w.Write(pdf)
	}
}
