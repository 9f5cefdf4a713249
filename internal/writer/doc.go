// Package writer persists relay delivery records.
//
// DeliveryWriter buffers model.Delivery values handed to it by the
// dispatcher and batch-inserts them into the overlay_deliveries table.
// Inserts are append-only: a repeated (message_id, attempt) pair is
// ignored via ON CONFLICT DO NOTHING.
package writer
