package repository

import (
	"context"

	"github.com/leratech/maweni-results/internal/models"
)

// ReferenceRepository reads the term, class, stream and subject lists.
type ReferenceRepository struct {
	client *BackendClient
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(client *BackendClient) *ReferenceRepository {
	return &ReferenceRepository{client: client}
}

func (r *ReferenceRepository) Terms(ctx context.Context) ([]models.Term, error) {
	var terms []models.Term
	if err := r.client.GetList(ctx, "/terms", nil, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *ReferenceRepository) Classes(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := r.client.GetList(ctx, "/classes", nil, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *ReferenceRepository) Streams(ctx context.Context) ([]models.Stream, error) {
	var streams []models.Stream
	if err := r.client.GetList(ctx, "/streams", nil, &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

func (r *ReferenceRepository) Subjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.client.GetList(ctx, "/subjects", nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}
