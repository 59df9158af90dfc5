// Package mongodb provides MongoDB-backed persistence for workflows.
//
// Workflow documents are stored in an envelope: the fields the repository
// queries on (owner, status, category, agents, version) are lifted to the top
// level, and the full definition travels as a JSON blob. This keeps the
// tagged-union action parameters out of BSON decoding entirely.
package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/persistence"
)

const (
	connectTimeout = 10 * time.Second
	maxPoolSize    = 50
	minPoolSize    = 10
)

type Persistence struct {
	client       *mongo.Client
	workflowRepo *WorkflowRepository
}

// NewPersistence connects to MongoDB and pings it before returning.
func NewPersistence(ctx context.Context, uri, database string) (*Persistence, error) {
	if uri == "" {
		return nil, errors.New("database connection URL is empty")
	}

	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetMinPoolSize(minPoolSize).
		SetConnectTimeout(connectTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	err = client.Ping(connectCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(database).Collection("workflows")

	return &Persistence{
		client:       client,
		workflowRepo: &WorkflowRepository{collection: collection},
	}, nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}

func (p *Persistence) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}

// workflowDocument is the stored envelope around a workflow definition.
type workflowDocument struct {
	ID         string   `bson:"_id"`
	Owner      string   `bson:"owner"`
	Status     string   `bson:"status"`
	Category   string   `bson:"category"`
	Agents     []string `bson:"agents,omitempty"`
	Version    int64    `bson:"version"`
	Definition []byte   `bson:"definition"`
}

func encodeDocument(workflow *models.Workflow) (*workflowDocument, error) {
	definition, err := json.Marshal(workflow)
	if err != nil {
		return nil, err
	}

	return &workflowDocument{
		ID:         workflow.ID,
		Owner:      workflow.Owner,
		Status:     string(workflow.Status),
		Category:   string(workflow.Category),
		Agents:     workflow.Agents,
		Version:    workflow.Version,
		Definition: definition,
	}, nil
}

func (d *workflowDocument) decode() (*models.Workflow, error) {
	var workflow models.Workflow

	err := json.Unmarshal(d.Definition, &workflow)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}

type WorkflowRepository struct {
	collection *mongo.Collection
}

func (wr *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) ([]*models.Workflow, error) {
	filter := bson.M{}

	if opts.OwnerID != "" {
		filter["owner"] = opts.OwnerID
	}

	if opts.Status != nil {
		filter["status"] = string(*opts.Status)
	}

	if opts.Category != nil {
		filter["category"] = string(*opts.Category)
	}

	if opts.Agent != "" {
		filter["agents"] = opts.Agent
	}

	cursor, err := wr.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	workflows := make([]*models.Workflow, 0)

	for cursor.Next(ctx) {
		var document workflowDocument

		err = cursor.Decode(&document)
		if err != nil {
			return nil, fmt.Errorf("failed to decode workflow document: %w", err)
		}

		workflow, err := document.decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode workflow %s: %w", document.ID, err)
		}

		workflows = append(workflows, workflow)
	}

	return workflows, cursor.Err()
}

func (wr *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	var document workflowDocument

	err := wr.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	workflow, err := document.decode()
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

func (wr *WorkflowRepository) Create(ctx context.Context, workflow *models.Workflow) error {
	document, err := encodeDocument(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Create", workflow.ID, err)
	}

	_, err = wr.collection.InsertOne(ctx, document)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return persistence.NewWorkflowError("Create", workflow.ID, persistence.ErrWorkflowAlreadyExists)
		}

		return persistence.NewWorkflowError("Create", workflow.ID, err)
	}

	return nil
}

// Update replaces the document only when the stored version still matches
// expectedVersion. A replace that matches nothing is either a lost race or a
// deleted workflow; a follow-up existence check tells the two apart.
func (wr *WorkflowRepository) Update(ctx context.Context, workflow *models.Workflow, expectedVersion int64) error {
	document, err := encodeDocument(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Update", workflow.ID, err)
	}

	result, err := wr.collection.ReplaceOne(ctx,
		bson.M{"_id": workflow.ID, "version": expectedVersion}, document)
	if err != nil {
		return persistence.NewWorkflowError("Update", workflow.ID, err)
	}

	if result.MatchedCount == 0 {
		count, err := wr.collection.CountDocuments(ctx, bson.M{"_id": workflow.ID})
		if err != nil {
			return persistence.NewWorkflowError("Update", workflow.ID, err)
		}

		if count == 0 {
			return persistence.NewWorkflowError("Update", workflow.ID, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Update", workflow.ID, persistence.ErrVersionConflict)
	}

	return nil
}

func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := wr.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if result.DeletedCount == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
