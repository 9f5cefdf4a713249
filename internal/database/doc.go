// Package database manages the relay's optional PostgreSQL connection.
//
// The relay logs every delivery attempt to the overlay_deliveries table
// when a database host is configured. EnsureSchema creates the table on
// startup.
package database
