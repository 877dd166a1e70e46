package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/stoewer/go-strcase"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

// protectedFields may never be changed through a gated update.
var protectedFields = map[string]struct{}{
	"id":         {},
	"company_id": {},
	"created_at": {},
	"created_by": {},
}

// EntityRecord is the tenant-aware view of a gated entity.
type EntityRecord struct {
	ID        string
	CompanyID string
	Name      string
	CreatedBy *string
	Snapshot  json.RawMessage
}

// EntityMutator applies deletes and updates to one gated entity type. Writes run on exec when it
// is non-nil so they can join a caller's transaction.
type EntityMutator interface {
	Collection() models.Collection
	Load(ctx context.Context, id string) (*EntityRecord, error)
	NormalizeChanges(raw json.RawMessage) (map[string]json.RawMessage, error)
	Update(ctx context.Context, exec sqlx.ExtContext, id string, changes map[string]json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// EntityRegistry maps entity type tags to their mutators.
type EntityRegistry map[string]EntityMutator

// Lookup resolves the mutator for an entity type tag.
func (r EntityRegistry) Lookup(entityType string) (EntityMutator, error) {
	key := strings.ToLower(strings.TrimSpace(entityType))
	if mutator, ok := r[key]; ok && mutator != nil {
		return mutator, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported entity type: %s", entityType))
}

type recordStore[T any] interface {
	FindByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, exec sqlx.ExtContext, item *T) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type recordMutator[T any] struct {
	store      recordStore[T]
	collection models.Collection
	describe   func(*T) EntityRecord
	fields     map[string]struct{}
}

func newRecordMutator[T any](store recordStore[T], collection models.Collection, describe func(*T) EntityRecord) *recordMutator[T] {
	return &recordMutator[T]{store: store, collection: collection, describe: describe, fields: jsonFields[T]()}
}

// NewEnquiryMutator exposes enquiries to gated mutations.
func NewEnquiryMutator(store recordStore[models.Enquiry]) EntityMutator {
	return newRecordMutator(store, models.CollectionEnquiries, func(e *models.Enquiry) EntityRecord {
		return EntityRecord{ID: e.ID, CompanyID: e.CompanyID, Name: e.CandidateName, CreatedBy: e.CreatedBy}
	})
}

// NewRegistrationMutator exposes registrations to gated mutations.
func NewRegistrationMutator(store recordStore[models.Registration]) EntityMutator {
	return newRecordMutator(store, models.CollectionRegistrations, func(r *models.Registration) EntityRecord {
		return EntityRecord{ID: r.ID, CompanyID: r.CompanyID, Name: r.StudentName, CreatedBy: r.CreatedBy}
	})
}

// NewEnrollmentMutator exposes enrollments to gated mutations.
func NewEnrollmentMutator(store recordStore[models.Enrollment]) EntityMutator {
	return newRecordMutator(store, models.CollectionEnrollments, func(e *models.Enrollment) EntityRecord {
		return EntityRecord{ID: e.ID, CompanyID: e.CompanyID, Name: e.StudentName + " - " + e.ProgramName, CreatedBy: e.CreatedBy}
	})
}

func (m *recordMutator[T]) Collection() models.Collection {
	return m.collection
}

func (m *recordMutator[T]) Load(ctx context.Context, id string) (*EntityRecord, error) {
	item, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	record := m.describe(item)
	snapshot, err := json.Marshal(item)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot entity")
	}
	record.Snapshot = snapshot
	return &record, nil
}

// NormalizeChanges converts keys to snake_case and rejects unknown or protected fields.
func (m *recordMutator[T]) NormalizeChanges(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "changes are required")
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "changes must be a JSON object")
	}
	if len(payload) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "changes are required")
	}
	normalized := make(map[string]json.RawMessage, len(payload))
	for key, value := range payload {
		field := strcase.SnakeCase(strings.TrimSpace(key))
		if _, blocked := protectedFields[field]; blocked {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %s cannot be changed", field))
		}
		if _, known := m.fields[field]; !known {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown field %s", key))
		}
		normalized[field] = value
	}
	return normalized, nil
}

func (m *recordMutator[T]) Update(ctx context.Context, exec sqlx.ExtContext, id string, changes map[string]json.RawMessage) (json.RawMessage, error) {
	item, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	current, err := json.Marshal(item)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot entity")
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(current, &merged); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot entity")
	}
	for field, value := range changes {
		if _, blocked := protectedFields[field]; blocked {
			continue
		}
		merged[field] = value
	}
	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to merge changes")
	}
	var updated T
	if err := json.Unmarshal(payload, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "changes do not match the entity fields")
	}
	if err := m.store.Update(ctx, exec, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, string(m.collection)+" record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update "+string(m.collection))
	}
	snapshot, err := json.Marshal(updated)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot entity")
	}
	return snapshot, nil
}

func (m *recordMutator[T]) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if err := m.store.Delete(ctx, exec, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, string(m.collection)+" record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+string(m.collection))
	}
	return nil
}

func (m *recordMutator[T]) find(ctx context.Context, id string) (*T, error) {
	item, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, string(m.collection)+" record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+string(m.collection))
	}
	return item, nil
}

// jsonFields lists the JSON keys a zero T marshals to.
func jsonFields[T any]() map[string]struct{} {
	var zero T
	raw, err := json.Marshal(zero)
	fields := make(map[string]struct{})
	if err != nil {
		return fields
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return fields
	}
	for key := range keys {
		fields[key] = struct{}{}
	}
	return fields
}

// changedFieldNames returns the sorted keys of a normalized change set.
func changedFieldNames(changes map[string]json.RawMessage) []string {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
