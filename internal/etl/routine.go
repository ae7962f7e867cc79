package etl

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultRoutineName is the fixed identifier of the extraction routine.
const DefaultRoutineName = "get_history"

// DefaultPageSize bounds one run's batch.
const DefaultPageSize = 10

var routineNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect renders the routine-related statements for one database engine.
type Dialect interface {
	Name() string
	// RoutineLookupQuery lists the routines named by its single parameter as
	// rows of (source, current). current is true for the cursor-aware
	// signature (entity id, after id, page size).
	RoutineLookupQuery() string
	// Overloads reports whether routines of different signatures can share
	// a name.
	Overloads() bool
	// RoutineDefinition is the statement installing the routine.
	RoutineDefinition(name string) string
	// ExpectedSource is what RoutineLookupQuery reports for RoutineDefinition.
	ExpectedSource(name string) string
	// CallQuery invokes the routine with (entity id, after id, page size).
	CallQuery(name string) string
}

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return postgresDialect{}, nil
	case "sqlserver", "mssql":
		return sqlServerDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported source driver %q", driver)
	}
}

func validateRoutineName(name string) error {
	if !routineNameRe.MatchString(name) {
		return fmt.Errorf("invalid routine name %q", name)
	}
	return nil
}

// The cursor is the event position clock*1e9+ns, which is what both
// routines filter and order by. Rows sharing a position are never split
// across pages: the page is cut WITH TIES on (clock, ns), so the next run's
// "> afterId" filter cannot skip the rest of a group.

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) RoutineLookupQuery() string {
	return "SELECT prosrc, pronargs = 3 FROM pg_proc WHERE proname = $1"
}

func (postgresDialect) Overloads() bool { return true }

func (d postgresDialect) RoutineDefinition(name string) string {
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s (IN hostIdparam INT, IN afterId BIGINT DEFAULT 0, IN pageSize INT DEFAULT %d)
RETURNS TABLE (
    clock TIMESTAMP WITH TIME ZONE,
    hostName text,
    itemId bigint,
    value numeric,
    itemUnits text,
    itemType int,
    itemName text,
    itemKey text,
    itemDelay text,
    itemHistory text,
    itemValueType int,
    actionId bigint
)
AS $$%s$$ LANGUAGE plpgsql;`, name, DefaultPageSize, d.ExpectedSource(name))
}

// FETCH ... WITH TIES needs PostgreSQL 13 or later.
func (postgresDialect) ExpectedSource(string) string {
	return `
BEGIN
RETURN QUERY (SELECT page.* FROM (SELECT
        to_timestamp(hi.clock) AS clock,
        ho.host::text AS hostName,
        i.itemid::bigint AS itemId,
        hi.value::numeric AS value,
        i.units::text AS itemUnits,
        i.type::int AS itemType,
        i.name::text AS itemName,
        i.key_::text AS itemKey,
        i.delay::text AS itemDelay,
        i.history::text AS itemHistory,
        i.value_type::int AS itemValueType,
        (hi.clock::bigint * 1000000000 + hi.ns)::bigint AS actionId
    FROM history hi
    LEFT JOIN items i ON hi.itemid = i.itemid
    LEFT JOIN hosts ho ON ho.hostid = i.hostid
    WHERE ho.hostid = hostIdparam
      AND (hi.clock::bigint * 1000000000 + hi.ns) > afterId
    ORDER BY hi.clock, hi.ns
    FETCH FIRST (pageSize) ROWS WITH TIES) page
    ORDER BY page.actionId, page.itemId
);
END;
`
}

func (postgresDialect) CallQuery(name string) string {
	return fmt.Sprintf("SELECT * FROM %s($1, $2, $3)", name)
}

type sqlServerDialect struct{}

func (sqlServerDialect) Name() string { return "sqlserver" }

func (sqlServerDialect) RoutineLookupQuery() string {
	return `SELECT OBJECT_DEFINITION(p.object_id),
    CAST(CASE WHEN EXISTS (SELECT 1 FROM sys.parameters pa WHERE pa.object_id = p.object_id AND pa.name = N'@afterId') THEN 1 ELSE 0 END AS BIT)
FROM sys.procedures p
WHERE p.name = @p1`
}

func (sqlServerDialect) Overloads() bool { return false }

func (d sqlServerDialect) RoutineDefinition(name string) string {
	return d.ExpectedSource(name)
}

func (sqlServerDialect) ExpectedSource(name string) string {
	return fmt.Sprintf(`CREATE PROCEDURE %s
    @hostIdparam INT,
    @afterId BIGINT = 0,
    @pageSize INT = %d
AS
BEGIN
    SET NOCOUNT ON;
    SELECT page.* FROM (
        SELECT TOP (@pageSize) WITH TIES
            DATEADD(SECOND, hi.clock, CAST('1970-01-01T00:00:00+00:00' AS DATETIMEOFFSET)) AS clock,
            ho.host AS hostName,
            i.itemid AS itemId,
            hi.value AS value,
            i.units AS itemUnits,
            i.type AS itemType,
            i.name AS itemName,
            i.key_ AS itemKey,
            i.delay AS itemDelay,
            i.history AS itemHistory,
            i.value_type AS itemValueType,
            (CAST(hi.clock AS BIGINT) * 1000000000 + hi.ns) AS actionId
        FROM history hi
        LEFT JOIN items i ON hi.itemid = i.itemid
        LEFT JOIN hosts ho ON ho.hostid = i.hostid
        WHERE ho.hostid = @hostIdparam
          AND (CAST(hi.clock AS BIGINT) * 1000000000 + hi.ns) > @afterId
        ORDER BY hi.clock, hi.ns
    ) page
    ORDER BY page.actionId, page.itemId;
END`, name, DefaultPageSize)
}

func (sqlServerDialect) CallQuery(name string) string {
	return fmt.Sprintf("EXEC %s @hostIdparam = @p1, @afterId = @p2, @pageSize = @p3", name)
}
