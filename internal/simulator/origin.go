package simulator

import (
	"anomalydash/internal/dto"
)

// Origin answers the three device endpoints from a catalog and a chain.
type Origin struct {
	catalog *Catalog
	chain   *Chain
}

func NewOrigin(catalog *Catalog, chain *Chain) *Origin {
	return &Origin{catalog: catalog, chain: chain}
}

func (o *Origin) AnomalyImages() (dto.ImagesResponse, error) {
	chain, err := o.chain.Data()
	if err != nil {
		return dto.ImagesResponse{}, err
	}
	images, err := o.catalog.List(chain.TxLogs)
	if err != nil {
		return dto.ImagesResponse{}, err
	}
	return dto.ImagesResponse{Success: true, Images: images, TotalCount: len(images)}, nil
}

func (o *Origin) Image(filename string) (dto.ImageResponse, error) {
	payload, cached, err := o.catalog.Image(filename)
	if err != nil {
		return dto.ImageResponse{}, err
	}
	return dto.ImageResponse{Success: true, Image: payload, Cached: cached}, nil
}

func (o *Origin) BlockchainData() (dto.BlockchainResponse, error) {
	return o.chain.Data()
}
