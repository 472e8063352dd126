package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/model"
	"anomalydash/internal/simulator"
)

type fakeOrigin struct {
	imagesErr error
	imageErr  error
	chainErr  error
}

func (f *fakeOrigin) AnomalyImages() (dto.ImagesResponse, error) {
	if f.imagesErr != nil {
		return dto.ImagesResponse{}, f.imagesErr
	}
	return dto.ImagesResponse{Success: true, Images: []model.ImageMetadata{{Filename: "a.jpg"}}, TotalCount: 1}, nil
}

func (f *fakeOrigin) Image(filename string) (dto.ImageResponse, error) {
	if f.imageErr != nil {
		return dto.ImageResponse{}, f.imageErr
	}
	return dto.ImageResponse{Success: true, Image: "data:image/jpeg;base64,AA=="}, nil
}

func (f *fakeOrigin) BlockchainData() (dto.BlockchainResponse, error) {
	if f.chainErr != nil {
		return dto.BlockchainResponse{}, f.chainErr
	}
	return dto.BlockchainResponse{Success: true, AnomalyCount: 1, TxLogs: []model.TransactionLog{{Folder: "video_1"}}}, nil
}

func originMux(origin Origin) *http.ServeMux {
	log := logger.Discard()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/anomaly-images", AnomalyImagesHandler(origin, log))
	mux.HandleFunc("GET /api/image/{filename}", OriginImageHandler(origin, log))
	mux.HandleFunc("GET /api/blockchain-data", BlockchainDataHandler(origin, log))
	return mux
}

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestOriginHandlers(t *testing.T) {
	mux := originMux(&fakeOrigin{})

	rec := get(mux, "/api/anomaly-images")
	assert.Equal(t, http.StatusOK, rec.Code)
	var images dto.ImagesResponse
	decode(t, rec, &images)
	assert.Equal(t, 1, images.TotalCount)

	rec = get(mux, "/api/image/a.jpg")
	assert.Equal(t, http.StatusOK, rec.Code)
	var image dto.ImageResponse
	decode(t, rec, &image)
	assert.True(t, image.Success)

	rec = get(mux, "/api/blockchain-data")
	var chain dto.BlockchainResponse
	decode(t, rec, &chain)
	assert.Equal(t, 1, chain.AnomalyCount)
}

func TestOriginHandlerFailures(t *testing.T) {
	mux := originMux(&fakeOrigin{
		imagesErr: errors.New("disk gone"),
		imageErr:  simulator.ErrImageNotFound,
		chainErr:  errors.New("db locked"),
	})

	rec := get(mux, "/api/anomaly-images")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var images dto.ImagesResponse
	decode(t, rec, &images)
	assert.False(t, images.Success)
	assert.NotNil(t, images.Images)

	rec = get(mux, "/api/image/missing.jpg")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(mux, "/api/blockchain-data")
	assert.Equal(t, http.StatusOK, rec.Code)
	var chain dto.BlockchainResponse
	decode(t, rec, &chain)
	assert.False(t, chain.Success)
	assert.Equal(t, "db locked", chain.Error)
}
