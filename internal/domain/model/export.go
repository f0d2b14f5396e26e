package model

import "time"

// ExportRow is one certificate line of the fleet status spreadsheet.
type ExportRow struct {
	Vessel             string
	IMO                string
	Flag               string
	ClassSociety       string
	VesselType         string
	Certificate        string
	Category           string
	IsConditionOfClass bool
	ExpiryDate         *time.Time
	Status             CertificateStatus
}

// ExportHeader lists the spreadsheet columns in order.
var ExportHeader = []string{
	"Vessel",
	"IMO",
	"Flag",
	"Class Society",
	"Vessel Type",
	"Certificate",
	"Category",
	"Condition of Class",
	"Expiry Date",
	"Status",
}
