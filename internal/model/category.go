package model

import "github.com/shopspring/decimal"

// Category groups seats of a seat map under a shared base price.  Category
// names are unique within a map (case-insensitive).  Once a seat references
// a category the category is treated as immutable by this service;
// administrative edits happen elsewhere.
//
// Fields:
//  ID        – primary key identifier.
//  SeatMapID – the seat map owning this category.
//  Name      – display name, unique within the map.
//  BasePrice – base ticket price for seats in this category.
//  Priority  – marks categories sold ahead of general sale.
type Category struct {
	ID        uint64          // categories.id
	SeatMapID uint64          // categories.seat_map_id
	Name      string          // categories.name
	BasePrice decimal.Decimal // categories.base_price
	Priority  bool            // categories.priority
}
