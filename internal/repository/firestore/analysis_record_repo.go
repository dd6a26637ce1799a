// Package firestore keeps analysis records in a Cloud Firestore collection,
// one document per record keyed by the record id.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

const DefaultCollection = "analysis_records"

type analysisRecordRepo struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
}

// NewClient creates a Firestore client for projectID.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore: project id must be provided")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return client, nil
}

// NewAnalysisRecordRepo creates a Firestore-backed AnalysisRecordRepository.
func NewAnalysisRecordRepo(client *firestore.Client, collection string) port.AnalysisRecordRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &analysisRecordRepo{client: client, coll: client.Collection(collection)}
}

func (r *analysisRecordRepo) Create(ctx context.Context, rec *domain.AnalysisRecord) error {
	if rec.CreatedAt.IsZero() {
		now := time.Now().UTC()
		rec.CreatedAt = now
		rec.UpdatedAt = now
	}
	if _, err := r.coll.Doc(rec.ID.String()).Create(ctx, rec); err != nil {
		return fmt.Errorf("analysisRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *analysisRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	snap, err := r.coll.Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("analysisRecordRepo.GetByID: %w", err)
	}
	return decode(snap)
}

func (r *analysisRecordRepo) ListByShip(ctx context.Context, shipID string, offset, limit int) ([]domain.AnalysisRecord, int, error) {
	refs, err := r.coll.Where("shipId", "==", shipID).Select().Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, fmt.Errorf("analysisRecordRepo.ListByShip count: %w", err)
	}

	q := r.coll.Where("shipId", "==", shipID).OrderBy("createdAt", firestore.Desc).Offset(offset).Limit(limit)
	recs, err := collect(q.Documents(ctx))
	if err != nil {
		return nil, 0, fmt.Errorf("analysisRecordRepo.ListByShip: %w", err)
	}
	return recs, len(refs), nil
}

func (r *analysisRecordRepo) ListByShipAndCategory(ctx context.Context, shipID string, category domain.Category) ([]domain.AnalysisRecord, error) {
	q := r.coll.Where("shipId", "==", shipID).Where("category", "==", string(category)).OrderBy("createdAt", firestore.Asc)
	recs, err := collect(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("analysisRecordRepo.ListByShipAndCategory: %w", err)
	}
	return recs, nil
}

func (r *analysisRecordRepo) UpdateUpload(ctx context.Context, id uuid.UUID, st domain.UploadStatus, storageKey, uploadErr string) error {
	_, err := r.coll.Doc(id.String()).Update(ctx, []firestore.Update{
		{Path: "uploadStatus", Value: string(st)},
		{Path: "storageKey", Value: storageKey},
		{Path: "uploadError", Value: uploadErr},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("analysisRecordRepo.UpdateUpload: %w", err)
	}
	return nil
}

func (r *analysisRecordRepo) Ping(ctx context.Context) error {
	it := r.coll.Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func collect(it *firestore.DocumentIterator) ([]domain.AnalysisRecord, error) {
	defer it.Stop()
	var recs []domain.AnalysisRecord
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := decode(snap)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

func decode(snap *firestore.DocumentSnapshot) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", snap.Ref.ID, err)
	}
	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("record key %q is not a uuid: %w", snap.Ref.ID, err)
	}
	rec.ID = id
	return &rec, nil
}
