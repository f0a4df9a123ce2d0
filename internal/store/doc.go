// Package store executes compiled relational commands against SQLite.
//
// The store backs scenario execution: a scenario seeds a database with raw
// SQL, runs the commands qforge compiled for the sqlite dialect, and checks
// the affected rows and the final table contents.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Commands are rebound with sqlx before execution; compiled text always uses
// '?' placeholders.
package store
