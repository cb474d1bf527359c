package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thientai/internal/domain/risk"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/persistence/sqlite/model"
	"thientai/internal/ports"
)

// coordTolerance is the dedup window for locations: two points within
// this many degrees on both axes are the same location.
const coordTolerance = 0.0001

type RiskRepository struct {
	db *gorm.DB
}

var _ ports.RiskRepository = (*RiskRepository)(nil)

func NewRiskRepository(db *gorm.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

func (r *RiskRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// wrapIntegrity tags foreign-key failures so callers can tell a rolled
// back write from other storage errors.
func wrapIntegrity(err error, msg string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%s: %w: %v", msg, risk.ErrIntegrity, err)
	}
	return errs.Wrap(err, msg)
}

// SaveCompleteAnalysis commits one logical analysis unit: location
// dedup/create, weather snapshot, rain stats, the analysis with its
// reasons, a history entry when level >= 2, and a province rain sample.
// All five effects commit or none do.
func (r *RiskRepository) SaveCompleteAnalysis(ctx context.Context, in ports.AnalysisSave, now time.Time, provinceCap int) (ports.SavedAnalysis, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SavedAnalysis{}, err
	}

	var out ports.SavedAnalysis
	err = db.Transaction(func(tx *gorm.DB) error {
		loc, found, err := findLocationNear(tx, in.Location.Lat, in.Location.Lon)
		if err != nil {
			return err
		}
		if !found {
			loc = model.Location{
				Lat:       in.Location.Lat,
				Lon:       in.Location.Lon,
				Title:     in.Location.Title,
				Subtitle:  in.Location.Subtitle,
				Province:  in.Location.Province,
				Elevation: in.Location.Elevation,
			}
			if err := tx.Create(&loc).Error; err != nil {
				return errs.Wrap(err, "create location")
			}
		}
		out.LocationID = loc.LocationID

		weather := model.WeatherSnapshot{
			LocationID:     loc.LocationID,
			Temp:           in.Weather.Temp,
			FeelsLike:      in.Weather.FeelsLike,
			TempMin:        in.Weather.TempMin,
			TempMax:        in.Weather.TempMax,
			Humidity:       in.Weather.Humidity,
			PressureSea:    in.Weather.PressureSea,
			PressureGround: in.Weather.PressureGround,
			WindSpeed:      in.Weather.WindSpeed,
			WindDir:        in.Weather.WindDir,
			WindGusts:      in.Weather.WindGusts,
			CloudCover:     in.Weather.CloudCover,
			UVIndex:        in.Weather.UVIndex,
			SoilMoisture:   in.Weather.SoilMoisture,
		}
		if err := tx.Create(&weather).Error; err != nil {
			return wrapIntegrity(err, "create weather snapshot")
		}
		out.WeatherID = weather.WeatherID

		rain := model.RainWindowStats{
			WeatherID: weather.WeatherID,
			H1:        in.Rain.H1,
			H2:        in.Rain.H2,
			H3:        in.Rain.H3,
			H5:        in.Rain.H5,
			H12:       in.Rain.H12,
			H24:       in.Rain.H24,
			D3:        in.Rain.D3,
			D7:        in.Rain.D7,
			D14:       in.Rain.D14,
		}
		if err := tx.Create(&rain).Error; err != nil {
			return wrapIntegrity(err, "create rain window stats")
		}

		weatherID := weather.WeatherID
		analysis := model.RiskAnalysis{
			LocationID:  loc.LocationID,
			WeatherID:   &weatherID,
			Level:       in.Analysis.Level,
			Label:       in.Analysis.Label,
			Score:       in.Analysis.Score,
			Confidence:  in.Analysis.Confidence,
			TerrainKind: in.Analysis.TerrainKind,
			SoilKind:    in.Analysis.SoilKind,
			Saturation:  in.Analysis.Saturation,
			CreatedAt:   now,
		}
		if err := tx.Create(&analysis).Error; err != nil {
			return wrapIntegrity(err, "create risk analysis")
		}
		out.AnalysisID = analysis.AnalysisID

		for _, reason := range in.Reasons {
			row := model.RiskReason{
				AnalysisID:  analysis.AnalysisID,
				Code:        reason.Code,
				Score:       reason.Score,
				Description: reason.Description,
				Source:      reason.Source,
			}
			if err := tx.Create(&row).Error; err != nil {
				return wrapIntegrity(err, "create risk reason")
			}
		}

		// Only non-safe outcomes make history.
		if in.Analysis.Level >= risk.LevelMinor {
			locationID := loc.LocationID
			analysisID := analysis.AnalysisID
			entry := model.HistoryEntry{
				LocationID: &locationID,
				AnalysisID: &analysisID,
				RiskLevel:  in.Analysis.Level,
				RiskType:   in.Analysis.Label,
				Title:      loc.Title,
				Province:   loc.Province,
				CreatedAt:  now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return wrapIntegrity(err, "create history entry")
			}
			out.HistoryID = &entry.HistoryID
		}

		province := provinceFor(loc)
		if err := appendProvinceRain(tx, province, in.Rain, now, provinceCap); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return ports.SavedAnalysis{}, err
	}
	return out, nil
}

// provinceFor picks the region label for rain samples: province, then
// subtitle, then a generic bucket.
func provinceFor(loc model.Location) string {
	if p := strings.TrimSpace(loc.Province); p != "" {
		return p
	}
	if s := strings.TrimSpace(loc.Subtitle); s != "" {
		return s
	}
	return "Khác"
}

func findLocationNear(tx *gorm.DB, lat, lon float64) (model.Location, bool, error) {
	var row model.Location
	err := tx.
		Where("lat BETWEEN ? AND ?", lat-coordTolerance, lat+coordTolerance).
		Where("lon BETWEEN ? AND ?", lon-coordTolerance, lon+coordTolerance).
		Order("location_id desc").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Location{}, false, nil
	}
	if err != nil {
		return model.Location{}, false, errs.Wrap(err, "find location near")
	}
	return row, true, nil
}

func (r *RiskRepository) FindLocationNear(ctx context.Context, lat, lon float64) (ports.LocationRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.LocationRecord{}, err
	}
	row, found, err := findLocationNear(db, lat, lon)
	if err != nil {
		return ports.LocationRecord{}, err
	}
	if !found {
		return ports.LocationRecord{}, risk.ErrNotFound
	}
	return mapLocation(row), nil
}

// RecordProvinceRain inserts one sample and evicts everything past the
// most recent cap rows for the province inside the same transaction.
// Eviction is strictly by recency; seeded baseline rows (non-NULL
// source) are reference data and exempt.
func (r *RiskRepository) RecordProvinceRain(ctx context.Context, province string, stats ports.RainStats, now time.Time, cap int) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return appendProvinceRain(tx, province, stats, now, cap)
	})
}

func appendProvinceRain(tx *gorm.DB, province string, stats ports.RainStats, now time.Time, cap int) error {
	if cap <= 0 {
		cap = 100
	}

	row := model.ProvinceRainSample{
		Province:   province,
		H1:         stats.H1,
		H3:         stats.H3,
		H24:        stats.H24,
		D3:         stats.D3,
		D7:         stats.D7,
		D14:        stats.D14,
		RecordedAt: now,
	}
	if err := tx.Create(&row).Error; err != nil {
		return errs.Wrap(err, "create province rain sample")
	}

	keep := tx.Model(&model.ProvinceRainSample{}).
		Select("sample_id").
		Where("province = ? AND source IS NULL", province).
		Order("recorded_at desc, sample_id desc").
		Limit(cap)
	if err := tx.
		Where("province = ? AND source IS NULL", province).
		Where("sample_id NOT IN (?)", keep).
		Delete(&model.ProvinceRainSample{}).Error; err != nil {
		return errs.Wrap(err, "evict old province rain samples")
	}
	return nil
}

// ReplaceAlerts swaps the auto-expiring alert set for the given one.
// Rows without an expiry are operator-managed and left alone.
func (r *RiskRepository) ReplaceAlerts(ctx context.Context, alerts []ports.AlertRecord, now time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at IS NOT NULL").Delete(&model.AlertEvent{}).Error; err != nil {
			return errs.Wrap(err, "clear scan alerts")
		}

		for _, a := range alerts {
			row := model.AlertEvent{
				ExternalID:   a.ExternalID,
				LocationName: a.LocationName,
				Province:     a.Province,
				Level:        a.Level,
				Type:         a.Type,
				Lat:          a.Lat,
				Lon:          a.Lon,
				RainMm:       a.RainMm,
				WindKmh:      a.WindKmh,
				Description:  a.Description,
				IsCluster:    a.IsCluster,
				Count:        a.Count,
				ExpiresAt:    a.ExpiresAt,
				CreatedAt:    now,
			}
			// The update half of the upsert must never touch an
			// operator row: a scan event reusing an operator's id
			// would otherwise flip it to auto-expiring.
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "external_id"}},
				Where: clause.Where{Exprs: []clause.Expression{
					clause.Expr{SQL: "expires_at IS NOT NULL"},
				}},
				DoUpdates: clause.Assignments(map[string]any{
					"location_name": row.LocationName,
					"province":      row.Province,
					"level":         row.Level,
					"type":          row.Type,
					"lat":           row.Lat,
					"lon":           row.Lon,
					"rain_mm":       row.RainMm,
					"wind_kmh":      row.WindKmh,
					"description":   row.Description,
					"is_cluster":    row.IsCluster,
					"count":         row.Count,
					"expires_at":    row.ExpiresAt,
				}),
			}).Create(&row).Error; err != nil {
				return errs.Wrap(err, "upsert alert event")
			}
		}
		return nil
	})
}

func (r *RiskRepository) ListAlerts(ctx context.Context) ([]ports.AlertRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.AlertEvent
	if err := db.Order("level desc, created_at desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query alerts")
	}

	out := make([]ports.AlertRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAlert(row))
	}
	return out, nil
}

// ClearExpiredAlerts deletes rows whose expiry has passed. Rows with no
// expiry never auto-expire.
func (r *RiskRepository) ClearExpiredAlerts(ctx context.Context, now time.Time) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	res := db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Delete(&model.AlertEvent{})
	if res.Error != nil {
		return 0, errs.Wrap(res.Error, "delete expired alerts")
	}
	return res.RowsAffected, nil
}

func (r *RiskRepository) GetHistory(ctx context.Context, limit int) ([]ports.HistoryRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.HistoryEntry{}).Order("created_at desc, history_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.HistoryEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query history")
	}

	out := make([]ports.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapHistory(row))
	}
	return out, nil
}

func (r *RiskRepository) GetHistoryDetail(ctx context.Context, historyID uint64) (ports.HistoryDetail, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.HistoryDetail{}, err
	}

	var entry model.HistoryEntry
	if err := db.Where("history_id = ?", historyID).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.HistoryDetail{}, risk.ErrNotFound
		}
		return ports.HistoryDetail{}, errs.Wrap(err, "query history entry")
	}

	detail := ports.HistoryDetail{History: mapHistory(entry)}

	if entry.LocationID != nil {
		var loc model.Location
		err := db.Where("location_id = ?", *entry.LocationID).Take(&loc).Error
		if err == nil {
			mapped := mapLocation(loc)
			detail.Location = &mapped
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.HistoryDetail{}, errs.Wrap(err, "query history location")
		}
	}

	if entry.AnalysisID == nil {
		return detail, nil
	}

	var analysis model.RiskAnalysis
	if err := db.Where("analysis_id = ?", *entry.AnalysisID).Take(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return detail, nil
		}
		return ports.HistoryDetail{}, errs.Wrap(err, "query history analysis")
	}
	mappedAnalysis := mapAnalysis(analysis)
	detail.Analysis = &mappedAnalysis

	var reasons []model.RiskReason
	if err := db.Where("analysis_id = ?", analysis.AnalysisID).
		Order("score desc").
		Find(&reasons).Error; err != nil {
		return ports.HistoryDetail{}, errs.Wrap(err, "query risk reasons")
	}
	for _, reason := range reasons {
		detail.Reasons = append(detail.Reasons, ports.ReasonRecord{
			Code:        reason.Code,
			Score:       reason.Score,
			Description: reason.Description,
			Source:      reason.Source,
		})
	}

	if analysis.WeatherID != nil {
		var weather model.WeatherSnapshot
		err := db.Where("weather_id = ?", *analysis.WeatherID).Take(&weather).Error
		if err == nil {
			mappedWeather := mapWeather(weather)
			detail.Weather = &mappedWeather

			var rain model.RainWindowStats
			rainErr := db.Where("weather_id = ?", weather.WeatherID).Take(&rain).Error
			if rainErr == nil {
				mappedRain := mapRain(rain)
				detail.Rain = &mappedRain
			} else if !errors.Is(rainErr, gorm.ErrRecordNotFound) {
				return ports.HistoryDetail{}, errs.Wrap(rainErr, "query rain window stats")
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.HistoryDetail{}, errs.Wrap(err, "query weather snapshot")
		}
	}

	return detail, nil
}

func (r *RiskRepository) DeleteHistory(ctx context.Context, historyID uint64) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	res := db.Where("history_id = ?", historyID).Delete(&model.HistoryEntry{})
	if res.Error != nil {
		return errs.Wrap(res.Error, "delete history entry")
	}
	if res.RowsAffected == 0 {
		return risk.ErrNotFound
	}
	return nil
}

// DeleteOldHistory removes non-favorited entries older than the cutoff.
// Favorited rows are exempt regardless of age.
func (r *RiskRepository) DeleteOldHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	res := db.Where("created_at < ? AND favorite = ?", cutoff, false).Delete(&model.HistoryEntry{})
	if res.Error != nil {
		return 0, errs.Wrap(res.Error, "delete old history")
	}
	return res.RowsAffected, nil
}

// ToggleFavorite flips the favorite flag and returns the new state.
// Missing ids are a no-op returning false.
func (r *RiskRepository) ToggleFavorite(ctx context.Context, historyID uint64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	var entry model.HistoryEntry
	if err := db.Where("history_id = ?", historyID).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errs.Wrap(err, "query history entry")
	}

	next := !entry.Favorite
	if err := db.Model(&model.HistoryEntry{}).
		Where("history_id = ?", historyID).
		Update("favorite", next).Error; err != nil {
		return false, errs.Wrap(err, "update favorite flag")
	}
	return next, nil
}

func (r *RiskRepository) GetProvinceRainHistory(ctx context.Context, province string, limit int) ([]ports.ProvinceRainRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ProvinceRainSample{}).
		Where("province = ? AND source IS NULL", province).
		Order("recorded_at desc, sample_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ProvinceRainSample
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query province rain history")
	}

	out := make([]ports.ProvinceRainRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapProvinceRain(row))
	}
	return out, nil
}

func (r *RiskRepository) GetHistoricProvinceRecords(ctx context.Context, province string) ([]ports.ProvinceRainRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ProvinceRainSample{}).
		Where("source IS NOT NULL").
		Order("recorded_at desc")
	if strings.TrimSpace(province) != "" {
		query = query.Where("province = ?", province)
	}

	var rows []model.ProvinceRainSample
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query historic province records")
	}

	out := make([]ports.ProvinceRainRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapProvinceRain(row))
	}
	return out, nil
}

func (r *RiskRepository) GetShelters(ctx context.Context) ([]ports.ShelterRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Shelter
	if err := db.Order("province asc, name asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query shelters")
	}

	out := make([]ports.ShelterRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.ShelterRecord{
			ShelterID: row.ShelterID,
			Name:      row.Name,
			Province:  row.Province,
			Address:   row.Address,
			Lat:       row.Lat,
			Lon:       row.Lon,
			Capacity:  row.Capacity,
			Contact:   row.Contact,
			Status:    row.Status,
		})
	}
	return out, nil
}

func mapLocation(row model.Location) ports.LocationRecord {
	return ports.LocationRecord{
		LocationID: row.LocationID,
		Lat:        row.Lat,
		Lon:        row.Lon,
		Title:      row.Title,
		Subtitle:   row.Subtitle,
		Province:   row.Province,
		Elevation:  row.Elevation,
	}
}

func mapWeather(row model.WeatherSnapshot) ports.WeatherRecord {
	return ports.WeatherRecord{
		WeatherID:      row.WeatherID,
		Temp:           row.Temp,
		FeelsLike:      row.FeelsLike,
		TempMin:        row.TempMin,
		TempMax:        row.TempMax,
		Humidity:       row.Humidity,
		PressureSea:    row.PressureSea,
		PressureGround: row.PressureGround,
		WindSpeed:      row.WindSpeed,
		WindDir:        row.WindDir,
		WindGusts:      row.WindGusts,
		CloudCover:     row.CloudCover,
		UVIndex:        row.UVIndex,
		SoilMoisture:   row.SoilMoisture,
	}
}

func mapRain(row model.RainWindowStats) ports.RainStats {
	return ports.RainStats{
		H1:  row.H1,
		H2:  row.H2,
		H3:  row.H3,
		H5:  row.H5,
		H12: row.H12,
		H24: row.H24,
		D3:  row.D3,
		D7:  row.D7,
		D14: row.D14,
	}
}

func mapAnalysis(row model.RiskAnalysis) ports.AnalysisRecord {
	return ports.AnalysisRecord{
		AnalysisID:  row.AnalysisID,
		LocationID:  row.LocationID,
		WeatherID:   row.WeatherID,
		Level:       row.Level,
		Label:       row.Label,
		Score:       row.Score,
		Confidence:  row.Confidence,
		TerrainKind: row.TerrainKind,
		SoilKind:    row.SoilKind,
		Saturation:  row.Saturation,
		CreatedAt:   row.CreatedAt,
	}
}

func mapAlert(row model.AlertEvent) ports.AlertRecord {
	return ports.AlertRecord{
		ExternalID:   row.ExternalID,
		LocationName: row.LocationName,
		Province:     row.Province,
		Level:        row.Level,
		Type:         row.Type,
		Lat:          row.Lat,
		Lon:          row.Lon,
		RainMm:       row.RainMm,
		WindKmh:      row.WindKmh,
		Description:  row.Description,
		IsCluster:    row.IsCluster,
		Count:        row.Count,
		ExpiresAt:    row.ExpiresAt,
	}
}

func mapHistory(row model.HistoryEntry) ports.HistoryRecord {
	return ports.HistoryRecord{
		HistoryID:  row.HistoryID,
		LocationID: row.LocationID,
		AnalysisID: row.AnalysisID,
		RiskLevel:  row.RiskLevel,
		RiskType:   row.RiskType,
		Favorite:   row.Favorite,
		CreatedAt:  row.CreatedAt,
		Title:      row.Title,
		Province:   row.Province,
	}
}

func mapProvinceRain(row model.ProvinceRainSample) ports.ProvinceRainRecord {
	return ports.ProvinceRainRecord{
		SampleID:   row.SampleID,
		Province:   row.Province,
		H1:         row.H1,
		H3:         row.H3,
		H24:        row.H24,
		D3:         row.D3,
		D7:         row.D7,
		D14:        row.D14,
		RecordedAt: row.RecordedAt,
		Note:       row.Note,
		Source:     row.Source,
	}
}
