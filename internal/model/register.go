package model

import "time"

// RequirementRegister is the flattened view rendered by the xlsx export.
type RequirementRegister struct {
	GeneratedBy Principal
	GeneratedAt time.Time
	Rows        []RegisterRow
}

type RegisterRow struct {
	Requirement Requirement
	Estimate    *Estimate
	PO          *PurchaseOrder
}

// PODocument bundles everything the PDF rendering of a purchase order needs.
type PODocument struct {
	PO          PurchaseOrder
	Requirement Requirement
	Estimate    *Estimate
}
