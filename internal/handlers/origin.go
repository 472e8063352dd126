package handlers

import (
	"errors"
	"net/http"

	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/model"
	"anomalydash/internal/simulator"
)

// Origin is the device side served by the development origin.
type Origin interface {
	AnomalyImages() (dto.ImagesResponse, error)
	Image(filename string) (dto.ImageResponse, error)
	BlockchainData() (dto.BlockchainResponse, error)
}

func AnomalyImagesHandler(origin Origin, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := origin.AnomalyImages()
		if err != nil {
			logger.Error("Error loading image metadata: %v", err)
			writeJSON(w, logger, http.StatusInternalServerError, dto.ImagesResponse{
				Success: false,
				Images:  []model.ImageMetadata{},
				Error:   err.Error(),
			})
			return
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

func OriginImageHandler(origin Origin, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.PathValue("filename")
		resp, err := origin.Image(filename)
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusOK, resp)
		case errors.Is(err, simulator.ErrImageNotFound):
			writeJSON(w, logger, http.StatusNotFound, dto.ImageResponse{Success: false, Error: "Image not found"})
		default:
			logger.Error("Error loading image %s: %v", filename, err)
			writeJSON(w, logger, http.StatusInternalServerError, dto.ImageResponse{Success: false, Error: err.Error()})
		}
	}
}

// BlockchainDataHandler reports chain failures in the body with a 200, the way the
// device does.
func BlockchainDataHandler(origin Origin, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := origin.BlockchainData()
		if err != nil {
			logger.Error("Blockchain error: %v", err)
			resp = dto.BlockchainResponse{Success: false, TxLogs: []model.TransactionLog{}, Error: err.Error()}
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}
