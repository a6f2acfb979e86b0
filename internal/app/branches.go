package service

import (
	"context"
	"fmt"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/model"
)

// ListBranches returns every branch.
func (s *Service) ListBranches(ctx context.Context) ([]model.Branch, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.store.Select(ctx, s.tables.Branches, recordstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	out := make([]model.Branch, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.BranchFromFields(r.ID, r.Fields))
	}
	return out, nil
}

// GetBranch returns one branch.
func (s *Service) GetBranch(ctx context.Context, id string) (model.Branch, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Find(ctx, s.tables.Branches, id)
	if err != nil {
		return model.Branch{}, fmt.Errorf("get branch %s: %w", id, err)
	}
	return model.BranchFromFields(rec.ID, rec.Fields), nil
}

// CreateBranch stores a new branch.
func (s *Service) CreateBranch(ctx context.Context, b model.Branch) (model.Branch, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Create(ctx, s.tables.Branches, b.Fields())
	if err != nil {
		return model.Branch{}, fmt.Errorf("create branch: %w", err)
	}
	return model.BranchFromFields(rec.ID, rec.Fields), nil
}

// UpdateBranch applies a partial update.
func (s *Service) UpdateBranch(ctx context.Context, id string, u model.BranchUpdate) (model.Branch, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Update(ctx, s.tables.Branches, id, u.Fields())
	if err != nil {
		return model.Branch{}, fmt.Errorf("update branch %s: %w", id, err)
	}
	return model.BranchFromFields(rec.ID, rec.Fields), nil
}
