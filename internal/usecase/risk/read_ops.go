package risk

import (
	"context"
	"errors"

	"thientai/internal/errs"
	"thientai/internal/ports"
)

// Read operations degrade to empty results when the store never came up,
// so the caller can keep rendering a stateless view.

func (s *Service) GetHistory(ctx context.Context, limit int) ([]ports.HistoryRecord, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return []ports.HistoryRecord{}, nil
	}
	items, err := s.repo.GetHistory(ctx, limit)
	if err != nil {
		return nil, errs.Wrap(err, "get history")
	}
	return items, nil
}

func (s *Service) GetHistoryDetail(ctx context.Context, historyID uint64) (ports.HistoryDetail, error) {
	if ctx == nil {
		return ports.HistoryDetail{}, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return ports.HistoryDetail{}, nil
	}
	detail, err := s.repo.GetHistoryDetail(ctx, historyID)
	if err != nil {
		return ports.HistoryDetail{}, errs.Wrapf(err, "get history detail %d", historyID)
	}
	return detail, nil
}

func (s *Service) GetProvinceRainHistory(ctx context.Context, province string, limit int) ([]ports.ProvinceRainRecord, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return []ports.ProvinceRainRecord{}, nil
	}
	items, err := s.repo.GetProvinceRainHistory(ctx, province, limit)
	if err != nil {
		return nil, errs.Wrapf(err, "get province rain history %q", province)
	}
	return items, nil
}

func (s *Service) GetHistoricProvinceRecords(ctx context.Context, province string) ([]ports.ProvinceRainRecord, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return []ports.ProvinceRainRecord{}, nil
	}
	items, err := s.repo.GetHistoricProvinceRecords(ctx, province)
	if err != nil {
		return nil, errs.Wrapf(err, "get historic province records %q", province)
	}
	return items, nil
}

func (s *Service) GetShelters(ctx context.Context) ([]ports.ShelterRecord, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return []ports.ShelterRecord{}, nil
	}
	items, err := s.repo.GetShelters(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "get shelters")
	}
	return items, nil
}

func (s *Service) ListAlerts(ctx context.Context) ([]ports.AlertRecord, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !s.storeAvailable() {
		return []ports.AlertRecord{}, nil
	}
	items, err := s.repo.ListAlerts(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list alerts")
	}
	return items, nil
}
