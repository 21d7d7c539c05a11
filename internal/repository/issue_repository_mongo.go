package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

type issueDocument struct {
	domain.Issue `bson:",inline"`
	Version      int64 `bson:"version"`
}

type mongoIssueRepository struct {
	collection *mongo.Collection
}

// NewMongoIssueRepository stores issues as single documents with embedded
// comments. Updates are version-checked and retried, pushing comments with
// $push and setting only changed fields with $set.
func NewMongoIssueRepository(db *mongo.Database) IssueRepository {
	return &mongoIssueRepository{collection: db.Collection("issues")}
}

func (r *mongoIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	prepareNew(issue, time.Now())
	// BSON dates carry milliseconds only
	issue.CreatedAt = issue.CreatedAt.Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, issueDocument{Issue: *issue})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *mongoIssueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	doc, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &doc.Issue, nil
}

func (r *mongoIssueRepository) Scan(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	query := bson.M{}
	if filter.ReporterID != nil {
		query["reporterId"] = *filter.ReporterID
	}
	if filter.AssignedTo != nil {
		query["assignedTo"] = *filter.AssignedTo
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []issueDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	result := make([]domain.Issue, 0, len(docs))
	for i := range docs {
		normalizeIssue(&docs[i].Issue)
		result = append(result, docs[i].Issue)
	}
	return result, nil
}

func (r *mongoIssueRepository) Update(ctx context.Context, id string, mutate IssueMutation) (*domain.Issue, error) {
	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		doc, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		patch, err := mutate(doc.Issue.Clone())
		if err != nil {
			return nil, err
		}
		if patch.Empty() {
			return &doc.Issue, nil
		}

		set := bson.M{}
		if patch.Status != nil {
			set["status"] = *patch.Status
		}
		if patch.Assignment != nil {
			set["assignedTo"] = patch.Assignment.Email
			set["assignedToName"] = patch.Assignment.Name
		}
		if patch.Rating != nil {
			set["rating"] = *patch.Rating
		}
		update := bson.M{"$inc": bson.M{"version": 1}}
		if len(set) > 0 {
			update["$set"] = set
		}
		if len(patch.AppendComments) > 0 {
			update["$push"] = bson.M{"comments": bson.M{"$each": patch.AppendComments}}
		}

		res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "version": doc.Version}, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			continue
		}
		doc.Issue.Apply(patch)
		return &doc.Issue, nil
	}
	return nil, ErrConflict
}

func (r *mongoIssueRepository) load(ctx context.Context, id string) (*issueDocument, error) {
	var doc issueDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	normalizeIssue(&doc.Issue)
	return &doc, nil
}

func normalizeIssue(issue *domain.Issue) {
	if issue.PhotoURLs == nil {
		issue.PhotoURLs = []string{}
	}
	if issue.Comments == nil {
		issue.Comments = []domain.Comment{}
	}
}
