package model

import "time"

// Item status values.  Status is the single source of truth for
// reservability: it is mutated only by the reservation and checkout
// services, never directly by catalog edits (except an explicit
// administrator override).
const (
	ItemStatusAvailable = "available"
	ItemStatusReserved  = "reserved"
	ItemStatusSold      = "sold"
)

// Item represents one collectible in the showroom catalog.  Prices are
// stored as integer cents to avoid floating point drift; presentation
// layers format them as decimal strings.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Code         – unique external code (optional, e.g. a casting number).
//  Category     – free-form category label used for filtering.
//  Description  – free-form description.
//  PriceCents   – price in cents, never negative.
//  Status       – one of available, reserved, sold.
//  Quantity     – stocked quantity (the showroom sells unique pieces, so
//                 this is almost always 1).
//  ImagePath    – reference to a stored image, managed elsewhere.
//  ExternalLink – optional link to an external listing.
//  CreatedAt    – when the row was inserted.
type Item struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Code         *string   `json:"code,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Description  *string   `json:"description,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	Status       string    `json:"status"`
	Quantity     uint32    `json:"quantity"`
	ImagePath    *string   `json:"image_path,omitempty"`
	ExternalLink *string   `json:"external_link,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
