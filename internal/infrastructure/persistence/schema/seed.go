package schema

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gorm.io/gorm"

	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/persistence/sqlite/model"
)

//go:embed seed_data.toml
var seedData []byte

type seedFile struct {
	Shelters     []seedShelter      `toml:"shelters"`
	HistoricRain []seedHistoricRain `toml:"historic_rain"`
	Watchpoints  []Watchpoint       `toml:"watchpoints"`
}

type seedShelter struct {
	Name     string  `toml:"name"`
	Province string  `toml:"province"`
	Address  string  `toml:"address"`
	Lat      float64 `toml:"lat"`
	Lon      float64 `toml:"lon"`
	Capacity int     `toml:"capacity"`
	Contact  string  `toml:"contact"`
	Status   string  `toml:"status"`
}

type seedHistoricRain struct {
	Province   string    `toml:"province"`
	H24        float64   `toml:"h24"`
	D3         float64   `toml:"d3"`
	D7         float64   `toml:"d7"`
	D14        float64   `toml:"d14"`
	RecordedAt time.Time `toml:"recorded_at"`
	Note       string    `toml:"note"`
	Source     string    `toml:"source"`
}

// Watchpoint is one bundled national-scan station.
type Watchpoint struct {
	Name      string  `toml:"name"`
	Province  string  `toml:"province"`
	Lat       float64 `toml:"lat"`
	Lon       float64 `toml:"lon"`
	Elevation float64 `toml:"elevation"`
}

func parseSeedData() (seedFile, error) {
	var f seedFile
	if err := toml.Unmarshal(seedData, &f); err != nil {
		return seedFile{}, errs.Wrap(err, "decode seed data")
	}
	return f, nil
}

// Watchpoints returns the bundled national-scan station list.
func Watchpoints() ([]Watchpoint, error) {
	f, err := parseSeedData()
	if err != nil {
		return nil, err
	}
	return f.Watchpoints, nil
}

// SeedReference loads bundled reference data. Shelters seed only into an
// empty table; historic rain baselines seed only while no row with a
// non-NULL source exists, so accumulated user data is never reseeded
// over.
func SeedReference(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if db == nil {
		return errors.New("db is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "persistence.seed"))

	f, err := parseSeedData()
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shelterCount int64
		if err := tx.Model(&model.Shelter{}).Count(&shelterCount).Error; err != nil {
			return errs.Wrap(err, "count shelters")
		}
		if shelterCount == 0 && len(f.Shelters) > 0 {
			rows := make([]model.Shelter, 0, len(f.Shelters))
			for _, s := range f.Shelters {
				rows = append(rows, model.Shelter{
					Name:     s.Name,
					Province: s.Province,
					Address:  s.Address,
					Lat:      s.Lat,
					Lon:      s.Lon,
					Capacity: s.Capacity,
					Contact:  s.Contact,
					Status:   s.Status,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return errs.Wrap(err, "seed shelters")
			}
			logging.Info(logCtx, "shelters seeded", slog.Int("count", len(rows)))
		}

		var sourcedCount int64
		if err := tx.Model(&model.ProvinceRainSample{}).
			Where("source IS NOT NULL").
			Count(&sourcedCount).Error; err != nil {
			return errs.Wrap(err, "count sourced rain samples")
		}
		if sourcedCount == 0 && len(f.HistoricRain) > 0 {
			rows := make([]model.ProvinceRainSample, 0, len(f.HistoricRain))
			for _, r := range f.HistoricRain {
				note := r.Note
				source := r.Source
				rows = append(rows, model.ProvinceRainSample{
					Province:   r.Province,
					H24:        r.H24,
					D3:         r.D3,
					D7:         r.D7,
					D14:        r.D14,
					RecordedAt: r.RecordedAt,
					Note:       &note,
					Source:     &source,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return errs.Wrap(err, "seed historic rain")
			}
			logging.Info(logCtx, "historic rain baselines seeded", slog.Int("count", len(rows)))
		}

		return nil
	})
}
