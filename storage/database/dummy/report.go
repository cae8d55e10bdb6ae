package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/report"
)

type reportRepository struct {
	db *reportTable
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.report}
}

func (repo *reportRepository) CreateReport(ctx context.Context, rep report.Report) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[rep.ID] = &rep
	return nil
}

func (repo *reportRepository) GetReportByID(ctx context.Context, id string) (report.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rep, ok := repo.db.table[id]; ok {
		return *rep, nil
	}
	return report.Report{}, report.ErrNotFound
}

func (repo *reportRepository) UpdateReport(ctx context.Context, rep report.Report) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[rep.ID]
	if !ok {
		return report.ErrNotFound
	}
	existing.Status = rep.Status
	existing.FilePath = rep.FilePath
	existing.ErrorMessage = rep.ErrorMessage
	existing.CompletedAt = rep.CompletedAt
	return nil
}

func (repo *reportRepository) QueryReports(ctx context.Context, requestedBy string, ordering ...core.DBOrdering) ([]report.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reps []report.Report
	for _, rep := range repo.db.table {
		if requestedBy != "" && rep.RequestedBy != requestedBy {
			continue
		}
		reps = append(reps, *rep)
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].CreatedAt.After(reps[j].CreatedAt) })
	return reps, nil
}
