// Package model defines the wire and domain types shared by the overlay
// monitor and the relay.
//
// Conventions:
//   - Every wire message is a JSON object with a "type" discriminator.
//   - Timestamps on the wire are ISO-8601 strings in UTC.
//   - Relay-assigned message IDs are uuid.UUID; IDs received from the wire stay strings.
package model
