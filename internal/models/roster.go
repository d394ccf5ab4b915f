package models

// RosterIssue explains why a spreadsheet row was not imported.
type RosterIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// RosterImportResult summarises a roster import into one class.
type RosterImportResult struct {
	ClassID         int           `json:"class_id"`
	Created         int           `json:"created"`
	Enrolled        int           `json:"enrolled"`
	AlreadyEnrolled int           `json:"already_enrolled"`
	Skipped         []RosterIssue `json:"skipped"`
}
