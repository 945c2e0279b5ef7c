package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- MEMORY TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS memory SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON memory TYPE string;
    -- Importance is advisory ranking input only; the nominal 1-10 range is
    -- deliberately not enforced here.
    DEFINE FIELD IF NOT EXISTS importance ON memory TYPE int DEFAULT 5;
    DEFINE FIELD IF NOT EXISTS category ON memory TYPE string DEFAULT "general";
    DEFINE FIELD IF NOT EXISTS is_summary ON memory TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS created ON memory TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS accessed ON memory TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS memory_user ON memory FIELDS user_id;

    -- ==========================================================================
    -- TIMETABLE TABLE
    -- ==========================================================================
    -- Replaced wholesale on every import; no per-row identity is carried over.
    DEFINE TABLE IF NOT EXISTS timetable_entry SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS day ON timetable_entry TYPE string;
    DEFINE FIELD IF NOT EXISTS room ON timetable_entry TYPE string;
    DEFINE FIELD IF NOT EXISTS time_slot ON timetable_entry TYPE string;
    DEFINE FIELD IF NOT EXISTS course ON timetable_entry TYPE string;
    DEFINE FIELD IF NOT EXISTS section ON timetable_entry TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS instructor ON timetable_entry TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS created ON timetable_entry TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS timetable_day ON timetable_entry FIELDS day;
`
