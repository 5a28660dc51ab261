// Package parquet persists measurement series as Parquet files.
//
// Exported files carry one row per measurement and are the input to the
// query service, which reads them through DuckDB.
package parquet
