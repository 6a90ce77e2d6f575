// Package proto defines the request and response messages of the pos.v1
// Connect services.
//
// Messages are plain structs carried with the JSON codec registered in
// protoconnect. Field names on the wire are lowerCamelCase. Money travels as
// decimal strings ("25.50") so clients never round through floating point.
// Timestamps are Unix seconds.
package proto
