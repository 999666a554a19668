// Package models contains GORM persistence models mapped to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// entity with ToDomain and FromDomain.
//
// - base.go: shared columns (id, timestamps, version, tenant)
// - quote.go: quotes and quote_line_items
// - workorder.go: work_orders and the append-only work_order_activities
package models
