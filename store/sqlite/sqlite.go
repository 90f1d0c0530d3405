/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements the lookup collaborators (military.EmployeeDirectory,
  military.ContributionHistory, yearend.ScheduleDirectory), participant
  loading for the year-end batch, and snapshot persistence. In
  production the same patterns apply to a server RDBMS - only minor SQL
  dialect differences.

KEY TABLES:
  demographics:   One row per badge; payroll facts and legacy plan state
  contributions:  Contribution history, one row per posting
  snapshot_runs:  One row per pipeline execution
  snapshots:      Persisted pipeline output, keyed by run

SUPERSEDE, DON'T MUTATE:
  Snapshots are never updated in place. Each pipeline execution writes a
  new run; readers resolve the latest run for a profit year. Earlier
  runs stay queryable for audits.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The year-end batch fans out
  lookups, so readers must not block each other.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so the batch's
  parallel readers don't block the single writer.

USAGE:
  store, err := sqlite.New("./data/plan.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - military/lookups.go: The directory and history interfaces
  - yearend/pipeline.go: The batch that reads and writes through here
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/plan-engine/military"
	"github.com/ledgerline/plan-engine/plan"
	"github.com/ledgerline/plan-engine/yearend"
)

const dayFormat = "2006-01-02"

// Store implements the lookup and persistence interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Demographics (one row per badge)
	CREATE TABLE IF NOT EXISTS demographics (
		badge INTEGER PRIMARY KEY,
		ssn TEXT,
		name TEXT NOT NULL,
		date_of_birth TEXT,
		hire_date TEXT,
		rehire_date TEXT,
		termination_date TEXT,
		status TEXT NOT NULL DEFAULT 'A',
		store INTEGER NOT NULL DEFAULT 0,
		department INTEGER NOT NULL DEFAULT 0,
		schedule INTEGER NOT NULL DEFAULT 0,
		has_forfeited BOOLEAN NOT NULL DEFAULT FALSE,
		has_history BOOLEAN NOT NULL DEFAULT FALSE,
		legacy_years INTEGER NOT NULL DEFAULT 0,
		first_contribution_year INTEGER NOT NULL DEFAULT 0,
		zero_contribution_reason INTEGER NOT NULL DEFAULT 0,
		enrollment INTEGER NOT NULL DEFAULT 0,
		current_balance TEXT NOT NULL DEFAULT '0',
		hours_worked TEXT NOT NULL DEFAULT '0',
		wages TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	-- Contributions (one row per posting, never updated)
	CREATE TABLE IF NOT EXISTS contributions (
		id TEXT PRIMARY KEY,
		badge INTEGER NOT NULL,
		contribution_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		supplemental BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Duplicate detection queries by contribution-date year (hot path)
	CREATE INDEX IF NOT EXISTS idx_contributions_badge_date
		ON contributions(badge, contribution_date);

	-- Pipeline executions
	CREATE TABLE IF NOT EXISTS snapshot_runs (
		run_id TEXT PRIMARY KEY,
		profit_year INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshot_runs_year
		ON snapshot_runs(profit_year, created_at DESC);

	-- Persisted pipeline output; superseded by newer runs, never mutated
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		badge INTEGER NOT NULL,
		suffix INTEGER NOT NULL DEFAULT 0,
		profit_year INTEGER NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		schedule INTEGER NOT NULL,
		years_in_plan INTEGER NOT NULL,
		vesting_percent TEXT NOT NULL,
		current_balance TEXT NOT NULL,
		vested_balance TEXT NOT NULL,
		enrollment INTEGER NOT NULL,
		zero_contribution_reason INTEGER NOT NULL,
		termination_date TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (run_id, badge, suffix)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_year
		ON snapshots(profit_year, badge);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DEMOGRAPHICS
// =============================================================================

// EmployeeRecord is one stored demographics row.
type EmployeeRecord struct {
	Badge           int
	SSN             string
	Name            string
	DateOfBirth     *time.Time
	HireDate        *time.Time
	RehireDate      *time.Time
	TerminationDate *time.Time
	Status          plan.EmploymentStatus

	Store      int
	Department int

	Schedule              plan.VestingScheduleID
	HasForfeited          bool
	HasHistory            bool
	LegacyYears           int
	FirstContributionYear int
	ZeroContribReason     plan.ZeroContributionReason
	Enrollment            plan.EnrollmentCategory

	CurrentBalance decimal.Decimal
	HoursWorked    decimal.Decimal
	Wages          decimal.Decimal
}

// SaveEmployee upserts a demographics row.
func (s *Store) SaveEmployee(ctx context.Context, rec EmployeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO demographics
		(badge, ssn, name, date_of_birth, hire_date, rehire_date, termination_date, status,
		 store, department, schedule, has_forfeited, has_history, legacy_years,
		 first_contribution_year, zero_contribution_reason, enrollment,
		 current_balance, hours_worked, wages, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(badge) DO UPDATE SET
			ssn = excluded.ssn,
			name = excluded.name,
			date_of_birth = excluded.date_of_birth,
			hire_date = excluded.hire_date,
			rehire_date = excluded.rehire_date,
			termination_date = excluded.termination_date,
			status = excluded.status,
			store = excluded.store,
			department = excluded.department,
			schedule = excluded.schedule,
			has_forfeited = excluded.has_forfeited,
			has_history = excluded.has_history,
			legacy_years = excluded.legacy_years,
			first_contribution_year = excluded.first_contribution_year,
			zero_contribution_reason = excluded.zero_contribution_reason,
			enrollment = excluded.enrollment,
			current_balance = excluded.current_balance,
			hours_worked = excluded.hours_worked,
			wages = excluded.wages
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Badge, rec.SSN, rec.Name,
		nullDay(rec.DateOfBirth), nullDay(rec.HireDate), nullDay(rec.RehireDate), nullDay(rec.TerminationDate),
		string(rec.Status), rec.Store, rec.Department,
		int(rec.Schedule), rec.HasForfeited, rec.HasHistory, rec.LegacyYears,
		rec.FirstContributionYear, int(rec.ZeroContribReason), int(rec.Enrollment),
		rec.CurrentBalance.String(), rec.HoursWorked.String(), rec.Wages.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Participants loads the population for a year-end run, ordered by badge.
func (s *Store) Participants(ctx context.Context) ([]yearend.ParticipantInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT badge, ssn, name, termination_date, status, store, department,
		       has_forfeited, has_history, legacy_years, first_contribution_year,
		       zero_contribution_reason, enrollment, current_balance, hours_worked, wages
		FROM demographics
		ORDER BY badge ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []yearend.ParticipantInput
	for rows.Next() {
		var (
			in       yearend.ParticipantInput
			badge    int
			ssn      sql.NullString
			termDate sql.NullString
			status   string
			reason   int
			enroll   int
			balance  string
			hours    string
			wages    string
		)
		if err := rows.Scan(
			&badge, &ssn, &in.Name, &termDate, &status, &in.Store, &in.Department,
			&in.HasForfeited, &in.HasHistory, &in.LegacyYears, &in.FirstContributionYear,
			&reason, &enroll, &balance, &hours, &wages,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}

		in.PSN = plan.PSN{Badge: plan.Badge(badge)}
		in.SSN = ssn.String
		in.Status = plan.EmploymentStatus(status)
		in.TerminationDate = parseNullDay(termDate)
		in.ImportedReason = plan.ZeroContributionReason(reason).Normalize()
		in.CurrentEnrollment = plan.EnrollmentCategory(enroll)
		in.CurrentBalance = mustDecimal(balance)
		in.HoursWorked = mustDecimal(hours)
		in.Wages = mustDecimal(wages)

		participants = append(participants, in)
	}
	return participants, rows.Err()
}

// =============================================================================
// LOOKUP INTERFACES (military.EmployeeDirectory, yearend.ScheduleDirectory)
// =============================================================================

// BadgeExists reports whether the badge resolves to a demographics row.
func (s *Store) BadgeExists(ctx context.Context, badge int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM demographics WHERE badge = ?", badge,
	).Scan(&count)
	return count > 0, err
}

// EarliestHireDate returns the earlier of the original hire and rehire
// dates. A rehire never moves the earliest date later.
func (s *Store) EarliestHireDate(ctx context.Context, badge int) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hire, rehire sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT hire_date, rehire_date FROM demographics WHERE badge = ?", badge,
	).Scan(&hire, &rehire)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	earliest := parseNullDay(hire)
	if r := parseNullDay(rehire); r != nil && (earliest == nil || r.Before(*earliest)) {
		earliest = r
	}
	if earliest == nil {
		return time.Time{}, false, nil
	}
	return *earliest, true, nil
}

// DateOfBirth returns the employee's date of birth.
func (s *Store) DateOfBirth(ctx context.Context, badge int) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dob sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT date_of_birth FROM demographics WHERE badge = ?", badge,
	).Scan(&dob)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	d := parseNullDay(dob)
	if d == nil {
		return time.Time{}, false, nil
	}
	return *d, true, nil
}

// Schedule returns the stored vesting schedule. ScheduleNone rows report
// not-found so the pipeline can apply its hire-year fallback.
func (s *Store) Schedule(ctx context.Context, badge int) (plan.VestingScheduleID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var schedule int
	err := s.db.QueryRowContext(ctx,
		"SELECT schedule FROM demographics WHERE badge = ?", badge,
	).Scan(&schedule)
	if err == sql.ErrNoRows {
		return plan.ScheduleNone, false, nil
	}
	if err != nil {
		return plan.ScheduleNone, false, err
	}
	if plan.VestingScheduleID(schedule) == plan.ScheduleNone {
		return plan.ScheduleNone, false, nil
	}
	return plan.VestingScheduleID(schedule), true, nil
}

// =============================================================================
// CONTRIBUTIONS (military.ContributionHistory)
// =============================================================================

// AddContribution appends one posting. Contribution rows are never
// updated; corrections post a new row.
func (s *Store) AddContribution(ctx context.Context, badge int, rec military.ContributionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO contributions (id, badge, contribution_date, amount, supplemental, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), badge,
		rec.Date.Format(dayFormat),
		rec.Amount.String(),
		rec.IsSupplemental,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append contribution: %w", err)
	}
	return nil
}

// ContributionsForYear returns postings whose contribution date falls in
// the given calendar year, oldest first.
func (s *Store) ContributionsForYear(ctx context.Context, badge, year int) ([]military.ContributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT contribution_date, amount, supplemental
		FROM contributions
		WHERE badge = ? AND contribution_date >= ? AND contribution_date <= ?
		ORDER BY contribution_date ASC
	`

	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)

	rows, err := s.db.QueryContext(ctx, query, badge, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributions: %w", err)
	}
	defer rows.Close()

	var records []military.ContributionRecord
	for rows.Next() {
		var (
			rec    military.ContributionRecord
			day    string
			amount string
		)
		if err := rows.Scan(&day, &amount, &rec.IsSupplemental); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		rec.Date, _ = time.Parse(dayFormat, day)
		rec.Amount = mustDecimal(amount)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SaveSnapshots persists one pipeline execution atomically and returns
// its run ID. Earlier runs for the same year are left in place; readers
// resolve the latest run.
func (s *Store) SaveSnapshots(ctx context.Context, profitYear int, snaps []plan.ParticipantSnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx,
		"INSERT INTO snapshot_runs (run_id, profit_year, created_at) VALUES (?, ?, ?)",
		runID, profitYear, now,
	); err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	query := `
		INSERT INTO snapshots
		(run_id, badge, suffix, profit_year, name, status, schedule, years_in_plan,
		 vesting_percent, current_balance, vested_balance, enrollment,
		 zero_contribution_reason, termination_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, snap := range snaps {
		if _, err := sqlTx.ExecContext(ctx, query,
			runID, int(snap.PSN.Badge), int(snap.PSN.Suffix), snap.ProfitYear,
			snap.Name, string(snap.Status), int(snap.Schedule), snap.YearsInPlan,
			snap.VestingPercent.String(), snap.CurrentBalance.String(), snap.VestedBalance.String(),
			int(snap.Enrollment), int(snap.ZeroContributionReason),
			nullDay(snap.TerminationDate), now,
		); err != nil {
			return "", fmt.Errorf("failed to save snapshot for badge %d: %w", int(snap.PSN.Badge), err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// LatestSnapshots returns the snapshots of the most recent run for a
// profit year, ordered by badge. Returns nil when no run exists.
func (s *Store) LatestSnapshots(ctx context.Context, profitYear int) ([]plan.ParticipantSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runID string
	err := s.db.QueryRowContext(ctx,
		// rowid breaks created_at ties in insertion order
		`SELECT run_id FROM snapshot_runs WHERE profit_year = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		profitYear,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	query := `
		SELECT badge, suffix, profit_year, name, status, schedule, years_in_plan,
		       vesting_percent, current_balance, vested_balance, enrollment,
		       zero_contribution_reason, termination_date
		FROM snapshots
		WHERE run_id = ?
		ORDER BY badge ASC, suffix ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []plan.ParticipantSnapshot
	for rows.Next() {
		var (
			snap     plan.ParticipantSnapshot
			badge    int
			suffix   int
			status   string
			schedule int
			percent  string
			balance  string
			vested   string
			enroll   int
			reason   int
			termDate sql.NullString
		)
		if err := rows.Scan(
			&badge, &suffix, &snap.ProfitYear, &snap.Name, &status, &schedule, &snap.YearsInPlan,
			&percent, &balance, &vested, &enroll, &reason, &termDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		snap.PSN = plan.PSN{Badge: plan.Badge(badge), Suffix: plan.PSNSuffix(suffix)}
		snap.Status = plan.EmploymentStatus(status)
		snap.Schedule = plan.VestingScheduleID(schedule)
		snap.VestingPercent = mustDecimal(percent)
		snap.CurrentBalance = mustDecimal(balance)
		snap.VestedBalance = mustDecimal(vested)
		snap.Enrollment = plan.EnrollmentCategory(enroll)
		snap.ZeroContributionReason = plan.ZeroContributionReason(reason)
		snap.TerminationDate = parseNullDay(termDate)

		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"snapshots", "snapshot_runs", "contributions", "demographics"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullDay(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dayFormat), Valid: true}
}

func parseNullDay(s sql.NullString) *time.Time {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil
	}
	t, err := time.Parse(dayFormat, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var (
	_ military.EmployeeDirectory   = (*Store)(nil)
	_ military.ContributionHistory = (*Store)(nil)
	_ yearend.ScheduleDirectory    = (*Store)(nil)
)
