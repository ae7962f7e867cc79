package etl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/BartekS5/zabbix-audit/pkg/utils"
)

// SQLSource extracts audit records through a stored routine.
type SQLSource struct {
	DB       *sql.DB
	Dialect  Dialect
	PageSize int
	// Definition, when set, replaces the built-in routine statement.
	Definition string
	Log        *logger.Logger

	// name of the routine Extract calls, set by EnsureRoutineInstalled.
	name string
}

func NewSQLSource(db *sql.DB, dialect Dialect, pageSize int, log *logger.Logger) *SQLSource {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SQLSource{DB: db, Dialect: dialect, PageSize: pageSize, Log: log}
}

// EnsureRoutineInstalled creates the cursor-aware routine only when it is
// absent. An existing one is never re-issued; a differing body is reported
// as drift. A same-named routine of an older signature is kept and the new
// one installed next to it where the engine allows overloads.
func (s *SQLSource) EnsureRoutineInstalled(ctx context.Context, name string) error {
	if err := validateRoutineName(name); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaInstall, err)
	}

	found, err := s.lookupRoutine(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking routine %s: %w", ErrConnectivity, name, err)
	}

	switch {
	case found.current:
		s.name = name
		if s.Definition == "" && normalizeSQL(found.source) != normalizeSQL(s.Dialect.ExpectedSource(name)) {
			s.Log.Warnf("Routine %s exists with a different definition; leaving it unchanged", name)
		}
		s.Log.Debugf("Routine %s already installed", name)
		return nil
	case found.legacy && !s.Dialect.Overloads():
		return fmt.Errorf("%w: routine %s exists without the afterId parameter; drop it or use another --routine-name", ErrSchemaInstall, name)
	case found.legacy:
		s.Log.Warnf("Routine %s exists with an older signature; installing the cursor-aware overload next to it", name)
	}

	stmt := s.Definition
	if stmt == "" {
		stmt = s.Dialect.RoutineDefinition(name)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: creating routine %s: %w", ErrSchemaInstall, name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing routine %s: %w", ErrSchemaInstall, name, err)
	}

	s.name = name
	s.Log.Infof("Installed routine %s on %s", name, s.Dialect.Name())
	return nil
}

func (s *SQLSource) routine() string {
	if s.name == "" {
		return DefaultRoutineName
	}
	return s.name
}

type routineLookup struct {
	source  string
	current bool
	legacy  bool
}

func (s *SQLSource) lookupRoutine(ctx context.Context, name string) (routineLookup, error) {
	var found routineLookup
	rows, err := s.DB.QueryContext(ctx, s.Dialect.RoutineLookupQuery(), name)
	if err != nil {
		return found, err
	}
	defer rows.Close()

	for rows.Next() {
		var src sql.NullString
		var current bool
		if err := rows.Scan(&src, &current); err != nil {
			return found, err
		}
		if current {
			found.source, found.current = src.String, true
		} else {
			found.legacy = true
		}
	}
	return found, rows.Err()
}

// Extract returns up to limit records after cursor, ordered by cursor. A
// group of records sharing the last cursor is returned whole, even when that
// exceeds limit.
// The result is all-or-nothing: any failure discards the rows read so far.
func (s *SQLSource) Extract(ctx context.Context, entityID int64, cursor models.Cursor, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = s.PageSize
	}

	rows, err := s.DB.QueryContext(ctx, s.Dialect.CallQuery(s.routine()), entityID, int64(cursor), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	results := []models.AuditRecord{}
	for rows.Next() {
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}
		if err := rows.Scan(columnPointers...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
		}

		m := make(map[string]interface{}, len(cols))
		for i, colName := range cols {
			m[strings.ToLower(colName)] = columns[i]
		}

		rec, err := recordFromRow(m)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrExtraction, len(results)+1, err)
		}
		// Past the limit only the rest of the last cursor's group is kept.
		if len(results) >= limit && (rec.ActionID == 0 || rec.ActionID != results[len(results)-1].ActionID) {
			break
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	return results, nil
}

func recordFromRow(m map[string]interface{}) (models.AuditRecord, error) {
	var rec models.AuditRecord
	var err error

	if rec.Timestamp, err = utils.ConvertDateTime(m["clock"]); err != nil {
		return rec, fmt.Errorf("clock: %w", err)
	}
	if rec.Value, err = utils.ConvertToDecimal(m["value"]); err != nil {
		return rec, fmt.Errorf("value: %w", err)
	}

	strs := []struct {
		col string
		dst **string
	}{
		{"hostname", &rec.HostName},
		{"itemunits", &rec.Unit},
		{"itemname", &rec.ItemName},
		{"itemkey", &rec.ItemKey},
		{"itemdelay", &rec.ItemDelay},
		{"itemhistory", &rec.ItemHistory},
		{"oldvalue", &rec.OldValue},
		{"newvalue", &rec.NewValue},
	}
	for _, f := range strs {
		if *f.dst, err = utils.ConvertToString(m[f.col]); err != nil {
			return rec, fmt.Errorf("%s: %w", f.col, err)
		}
	}

	ints := []struct {
		col string
		dst **int64
	}{
		{"itemid", &rec.ItemID},
		{"itemtype", &rec.ItemType},
		{"itemvaluetype", &rec.ItemValueType},
	}
	for _, f := range ints {
		if *f.dst, err = utils.ConvertToInt64(m[f.col]); err != nil {
			return rec, fmt.Errorf("%s: %w", f.col, err)
		}
	}

	actionID, err := utils.ConvertToInt64(m["actionid"])
	if err != nil {
		return rec, fmt.Errorf("actionid: %w", err)
	}
	if actionID != nil {
		if *actionID < 0 {
			return rec, errors.New("actionid: negative cursor")
		}
		rec.ActionID = models.Cursor(*actionID)
	}

	return rec, nil
}

// normalizeSQL collapses whitespace so formatting differences are not drift.
func normalizeSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
