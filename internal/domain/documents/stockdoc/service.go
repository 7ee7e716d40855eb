package stockdoc

import (
	"context"
	"fmt"
	"time"

	"stockward/internal/core/id"
	"stockward/internal/core/numerator"
	"stockward/internal/core/tx"
	"stockward/internal/domain"
	"stockward/internal/domain/audit"
	"stockward/internal/domain/posting"
	"stockward/pkg/logger"
)

// Service provides business operations for stock documents.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	numerator     numerator.Generator
	txManager     tx.Manager
}

// NewService creates a new stock document service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		numerator:     gen,
		txManager:     txManager,
	}
}

// Create creates a new draft stock document.
func (s *Service) Create(ctx context.Context, doc *Document) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	audit.EnrichCreatedByDirect(ctx, &doc.CreatedBy, &doc.UpdatedBy)

	if err := s.ensureNumber(ctx, doc); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock document created",
		"id", doc.ID,
		"number", doc.Number,
		"type", doc.Type,
	)
	return nil
}

// GetByID retrieves a stock document with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// GetByNumber retrieves a stock document by its number, with lines.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Document, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update updates a draft stock document. Posted documents are immutable.
func (s *Service) Update(ctx context.Context, doc *Document) error {
	if err := doc.CanModify(); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	audit.EnrichUpdatedByDirect(ctx, &doc.UpdatedBy)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a draft. Posted documents are part of the ledger
// history and cannot be deleted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := doc.CanModify(); err != nil {
		return err
	}

	return s.repo.Delete(ctx, docID)
}

// Post posts the document: writes ledger entries, updates balances and
// flips the status, all in one transaction. The document is re-loaded
// under a row lock inside that transaction, so the posted state is
// always the stored state, not a stale in-memory copy.
func (s *Service) Post(ctx context.Context, docID id.ID) error {
	load := func(ctx context.Context) (posting.Postable, error) {
		return s.repo.GetForPosting(ctx, docID)
	}
	markPosted := func(ctx context.Context, postedAt time.Time) error {
		return s.repo.MarkPosted(ctx, docID, postedAt)
	}

	return s.postingEngine.Post(ctx, load, markPosted)
}

// PostAndSave creates the document (if new) and posts it. The draft is
// saved first in its own transaction: if posting then fails, the
// document survives as a draft the user can correct and re-post.
func (s *Service) PostAndSave(ctx context.Context, doc *Document) error {
	if doc.Version == 1 {
		if err := s.Create(ctx, doc); err != nil {
			return err
		}
	} else {
		if err := s.Update(ctx, doc); err != nil {
			return err
		}
	}

	return s.Post(ctx, doc.ID)
}

// List retrieves stock documents with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	return s.repo.List(ctx, filter)
}

// ensureNumber assigns a generated number when the document has none.
func (s *Service) ensureNumber(ctx context.Context, doc *Document) error {
	if doc.Number != "" {
		return nil
	}

	cfg := numerator.DefaultConfig(NumberPrefix(doc.Type))
	number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	doc.Number = number
	return nil
}
