// Package persistence provides SQLite-based storage of simulation results:
// run metadata, per-year territory trajectories, and the final household
// snapshot.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/greenloop/biocycle/internal/agents"
	"github.com/greenloop/biocycle/internal/territory"
)

// DB wraps a SQLite connection for result persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		seed INTEGER NOT NULL,
		horizon INTEGER NOT NULL,
		reference_year INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS territory_years (
		run_id TEXT NOT NULL,
		territory_id INTEGER NOT NULL,
		year INTEGER NOT NULL,
		calendar_year INTEGER NOT NULL,
		population REAL NOT NULL,
		plan_intensity REAL NOT NULL,
		food_produced REAL NOT NULL,
		green_produced REAL NOT NULL,
		compost_food_intention REAL NOT NULL,
		compost_green_intention REAL NOT NULL,
		collect_food_intention REAL NOT NULL,
		collect_green_intention REAL NOT NULL,
		compost_capacity REAL NOT NULL,
		collection_capacity REAL NOT NULL,
		intended_compost REAL NOT NULL,
		intended_collection REAL NOT NULL,
		composted_food REAL NOT NULL,
		composted_green REAL NOT NULL,
		collected_food REAL NOT NULL,
		collected_green REAL NOT NULL,
		compost_surplus_food REAL NOT NULL,
		compost_surplus_green REAL NOT NULL,
		collection_surplus_food REAL NOT NULL,
		collection_surplus_green REAL NOT NULL,
		residual_food REAL NOT NULL,
		valorised_green REAL NOT NULL,
		residual_per_capita_kg REAL NOT NULL,
		collection_coverage REAL NOT NULL,
		collected_per_served_kg REAL NOT NULL,
		green_reduction_rate REAL NOT NULL,
		compost_adoption_rate REAL NOT NULL,
		collection_adoption_rate REAL NOT NULL,
		PRIMARY KEY (run_id, territory_id, year)
	);

	CREATE TABLE IF NOT EXISTS households (
		run_id TEXT NOT NULL,
		territory_id INTEGER NOT NULL,
		household_index INTEGER NOT NULL,
		size REAL NOT NULL,
		threshold_compost REAL NOT NULL,
		threshold_collection REAL NOT NULL,
		category TEXT NOT NULL,
		adopted_compost INTEGER NOT NULL,
		adopted_collection INTEGER NOT NULL,
		food_produced REAL NOT NULL,
		green_produced REAL NOT NULL,
		food_composted REAL NOT NULL,
		green_composted REAL NOT NULL,
		food_collected REAL NOT NULL,
		green_collected REAL NOT NULL,
		food_residual REAL NOT NULL,
		green_valorised REAL NOT NULL,
		PRIMARY KEY (run_id, territory_id, household_index)
	);

	CREATE INDEX IF NOT EXISTS idx_territory_years_run ON territory_years(run_id);
	CREATE INDEX IF NOT EXISTS idx_households_run ON households(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun records run metadata.
func (db *DB) SaveRun(runID, scenario string, seed int64, horizon, referenceYear int) error {
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, scenario, seed, horizon, reference_year, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, scenario, seed, horizon, referenceYear, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// SaveTrajectory writes every computed year of one territory.
func (db *DB) SaveTrajectory(runID string, sim *territory.Simulator) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO territory_years
		(run_id, territory_id, year, calendar_year, population, plan_intensity,
		 food_produced, green_produced,
		 compost_food_intention, compost_green_intention,
		 collect_food_intention, collect_green_intention,
		 compost_capacity, collection_capacity,
		 intended_compost, intended_collection,
		 composted_food, composted_green, collected_food, collected_green,
		 compost_surplus_food, compost_surplus_green,
		 collection_surplus_food, collection_surplus_green,
		 residual_food, valorised_green,
		 residual_per_capita_kg, collection_coverage, collected_per_served_kg,
		 green_reduction_rate, compost_adoption_rate, collection_adoption_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for y := 0; y < sim.Horizon(); y++ {
		rec := sim.Year(y)
		_, err := stmt.Exec(
			runID, rec.TerritoryID, rec.Year, rec.CalendarYear,
			rec.Population, rec.PlanIntensity,
			rec.FoodProduced, rec.GreenProduced,
			rec.CompostFoodIntention, rec.CompostGreenIntention,
			rec.CollectFoodIntention, rec.CollectGreenIntention,
			rec.CompostCapacity, rec.CollectionCapacity,
			rec.IntendedCompost, rec.IntendedCollection,
			rec.CompostedFood, rec.CompostedGreen,
			rec.CollectedFood, rec.CollectedGreen,
			rec.CompostSurplusFood, rec.CompostSurplusGreen,
			rec.CollectionSurplusFood, rec.CollectionSurplusGreen,
			rec.ResidualFood, rec.ValorisedGreen,
			rec.ResidualPerCapitaKg, rec.CollectionCoverage, rec.CollectedPerServedKg,
			rec.GreenReductionRate, rec.CompostAdoptionRate, rec.CollectionAdoptionRate,
		)
		if err != nil {
			return fmt.Errorf("insert territory %d year %d: %w", rec.TerritoryID, y, err)
		}
	}
	return tx.Commit()
}

// SaveHouseholds writes the end-of-run household snapshot for one territory.
func (db *DB) SaveHouseholds(runID string, households []*agents.Household) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO households
		(run_id, territory_id, household_index, size,
		 threshold_compost, threshold_collection, category,
		 adopted_compost, adopted_collection,
		 food_produced, green_produced, food_composted, green_composted,
		 food_collected, green_collected, food_residual, green_valorised)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range households {
		adoptedCompost := 0
		if h.HasAdopted(agents.BehaviorCompost) {
			adoptedCompost = 1
		}
		adoptedCollection := 0
		if h.HasAdopted(agents.BehaviorCollection) {
			adoptedCollection = 1
		}

		_, err := stmt.Exec(
			runID, h.TerritoryID, h.Index, h.Size,
			h.Thresholds[agents.BehaviorCompost], h.Thresholds[agents.BehaviorCollection],
			agents.CategoryName(h.Category(agents.BehaviorCompost)),
			adoptedCompost, adoptedCollection,
			h.Flows.FoodProduced, h.Flows.GreenProduced,
			h.Flows.FoodComposted, h.Flows.GreenComposted,
			h.Flows.FoodCollected, h.Flows.GreenCollected,
			h.Flows.FoodResidual, h.Flows.GreenValorised,
		)
		if err != nil {
			return fmt.Errorf("insert household %d/%d: %w", h.TerritoryID, h.Index, err)
		}
	}
	return tx.Commit()
}

// SaveResults persists the complete output of one simulated territory.
func (db *DB) SaveResults(runID string, sim *territory.Simulator) error {
	if err := db.SaveTrajectory(runID, sim); err != nil {
		return fmt.Errorf("save trajectory: %w", err)
	}
	if err := db.SaveHouseholds(runID, sim.Households()); err != nil {
		return fmt.Errorf("save households: %w", err)
	}
	slog.Info("results saved",
		"run", runID,
		"years", sim.Horizon(),
		"households", len(sim.Households()),
	)
	return nil
}
