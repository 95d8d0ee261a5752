// Package models contains the GORM persistence models of the sync engine.
// Domain types carry no ORM tags; repositories convert through ToDomain and
// FromDomain on these models.
package models
