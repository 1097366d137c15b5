package main

import (
	"errors"
	"net/http"
	"os"

	"go.uber.org/zap"

	"medassist/config"
	"medassist/respond"
)

// GetConfigHandler returns the current settings without the JWT secret.
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		cfg.JWTSecret = ""
		respond.JSON(w, http.StatusOK, cfg)
	}
}

// SaveConfigHandler validates and persists posted settings. An empty
// jwtSecret keeps the stored one.
func SaveConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newCfg config.Config
		if !respond.Decode(w, r, &newCfg) {
			return
		}

		if err := validateFolderPath(newCfg.ImportFolderPath); err != nil {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateFolderPath(newCfg.UploadDir); err != nil {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		if newCfg.SeedPath != "" {
			if _, err := os.Stat(newCfg.SeedPath); err != nil {
				respond.Message(w, http.StatusBadRequest, "Fichier de dictionnaires introuvable : "+newCfg.SeedPath)
				return
			}
		}
		if newCfg.LogLevel != "" {
			switch newCfg.LogLevel {
			case "debug", "info", "warn", "error":
			default:
				respond.Message(w, http.StatusBadRequest, "Niveau de journalisation inconnu : "+newCfg.LogLevel)
				return
			}
		}

		if newCfg.JWTSecret == "" {
			newCfg.JWTSecret = config.GetConfig().JWTSecret
		}

		if err := config.SaveConfig(newCfg); err != nil {
			zap.L().Error("failed to save config", zap.Error(err))
			respond.Message(w, http.StatusInternalServerError, "L'enregistrement des paramètres a échoué.")
			return
		}

		respond.Message(w, http.StatusOK, "Paramètres enregistrés. Certains changements prennent effet au redémarrage.")
	}
}

func validateFolderPath(path string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New("Dossier introuvable : " + path)
		}
		zap.L().Warn("failed to check folder path", zap.String("path", path), zap.Error(err))
		return errors.New("Impossible de vérifier le dossier : " + path)
	}
	if !info.IsDir() {
		return errors.New("Le chemin n'est pas un dossier : " + path)
	}
	return nil
}
