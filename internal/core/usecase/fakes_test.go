package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/policy"
	"github.com/tbraverman/leaselens/internal/core/rules"
	"github.com/tbraverman/leaselens/internal/core/versiongraph"
)

var errFakeNotFound = errors.New("not found")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGraph() *versiongraph.Graph {
	logger := testLogger()
	pol := policy.New(policy.DefaultConfidenceThreshold)
	return versiongraph.New(rules.NewEngine(rules.DefaultConfig(), pol, logger), pol, logger)
}

type fakeDocumentRepo struct {
	mu     sync.Mutex
	docs   map[string]*domain.Document
	byHash map[string]string
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:   make(map[string]*domain.Document),
		byHash: make(map[string]string),
	}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	if doc.ContentHash != "" {
		r.byHash[doc.ContentHash] = doc.ID
	}
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errFakeNotFound)
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocumentRepo) GetByContentHash(_ context.Context, hash string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHash[hash]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document by hash", errFakeNotFound)
	}
	copied := *r.docs[id]
	return &copied, nil
}

func (r *fakeDocumentRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update status", errFakeNotFound)
	}
	doc.Status = status
	doc.Error = errMessage
	return nil
}

func (r *fakeDocumentRepo) SaveClassification(_ context.Context, id string, cls domain.Classification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "save classification", errFakeNotFound)
	}
	doc.DeclaredType = cls.Type
	doc.ClassificationConfidence = cls.Confidence
	doc.NeedsReview = cls.NeedsReview()
	return nil
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = b
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open blob", errFakeNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fakeQueue struct {
	mu        sync.Mutex
	published []string
}

func (q *fakeQueue) PublishDocumentUploaded(_ context.Context, documentID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentUploaded(_ context.Context, _ func(context.Context, string) error) error {
	return nil
}

type fakeTextExtractor struct {
	text string
	err  error
}

func (e *fakeTextExtractor) Extract(_ context.Context, _ *domain.Document) (string, error) {
	return e.text, e.err
}

type fakeClassifier struct {
	cls domain.Classification
	err error
}

func (c *fakeClassifier) Classify(_ context.Context, _ string) (domain.Classification, error) {
	return c.cls, c.err
}

type fakeFieldExtractor struct {
	lease        *domain.Lease
	amendment    *domain.Amendment
	leaseErr     error
	amendmentErr error
}

func (f *fakeFieldExtractor) ExtractLease(_ context.Context, _ string) (*domain.Lease, error) {
	if f.leaseErr != nil || f.lease == nil {
		return nil, f.leaseErr
	}
	out := f.lease.Clone()
	return &out, nil
}

func (f *fakeFieldExtractor) ExtractAmendment(_ context.Context, _ string) (*domain.Amendment, error) {
	if f.amendmentErr != nil || f.amendment == nil {
		return nil, f.amendmentErr
	}
	out := f.amendment.Clone()
	return &out, nil
}

type fakeGroupStore struct {
	mu     sync.Mutex
	groups map[string]domain.LeaseGroup
	saves  int
	err    error
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[string]domain.LeaseGroup)}
}

func (s *fakeGroupStore) SaveGroup(_ context.Context, group *domain.LeaseGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.err != nil {
		return s.err
	}
	s.groups[group.LeaseID] = group.Clone()
	return nil
}

func (s *fakeGroupStore) LoadGroups(_ context.Context) ([]domain.LeaseGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LeaseGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.Clone())
	}
	return out, nil
}

type fakeLineage struct {
	mu       sync.Mutex
	projects int
	err      error
}

func (l *fakeLineage) ProjectGroup(_ context.Context, _ *domain.LeaseGroup) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.projects++
	return l.err
}
