package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/pkg/export"
)

const noValue = "-"

func formatGrade(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatAverage(v *float64) string {
	if v == nil {
		return noValue
	}
	return fmt.Sprintf("%.2f", *v)
}

// activityColumns returns one unique column header per activity.
func activityColumns(activities []models.ActivityGrades) []string {
	seen := make(map[string]bool, len(activities))
	cols := make([]string, len(activities))
	for i, a := range activities {
		name := a.Name
		if seen[name] || name == "Code" || name == "Student" || name == "Average" {
			name = fmt.Sprintf("%s #%d", a.Name, a.ActivityID)
		}
		seen[name] = true
		cols[i] = name
	}
	return cols
}

func classSummaryLines(report *models.ClassReport) []string {
	lines := []string{fmt.Sprintf("Mean grade: %.2f (%s)", report.MeanGrade, report.Band.Label())}
	if report.Best == nil {
		return append(lines, "Best and worst: no student has a grade yet")
	}
	return append(lines,
		fmt.Sprintf("Best: %s (%s) %.2f", report.Best.Name, report.Best.RegistrationCode, report.Best.Average),
		fmt.Sprintf("Worst: %s (%s) %.2f", report.Worst.Name, report.Worst.RegistrationCode, report.Worst.Average),
	)
}

// ClassReportDocument lays the class report out as a grade table plus summary.
func ClassReportDocument(report *models.ClassReport) export.Document {
	doc := export.Document{
		Title: "Class report - " + report.Class.Name,
		Header: []string{
			fmt.Sprintf("Class ID: %d", report.Class.ID),
			fmt.Sprintf("Students: %d | Activities: %d", report.Class.StudentCount, report.Class.ActivityCount),
			"Generated: " + report.GeneratedAt.Format("2006-01-02 15:04 MST"),
		},
	}

	grades := export.Section{Heading: "Grades"}
	if len(report.Students) == 0 {
		grades.Lines = []string{"No students enrolled."}
	} else {
		cols := activityColumns(report.Activities)
		headers := append([]string{"Code", "Student"}, cols...)
		headers = append(headers, "Average")
		rows := make([]map[string]string, 0, len(report.Students))
		for _, st := range report.Students {
			row := map[string]string{"Code": st.RegistrationCode, "Student": st.Name, "Average": formatAverage(st.Average)}
			for i, g := range st.Grades {
				if i < len(cols) && g.Grade != nil {
					row[cols[i]] = formatGrade(*g.Grade)
				}
			}
			rows = append(rows, row)
		}
		grades.Table = export.Dataset{Headers: headers, Rows: rows}
	}

	doc.Sections = []export.Section{grades, {Heading: "Summary", Lines: classSummaryLines(report)}}
	return doc
}

// ClassReportTextDocument is the terminal form of the class report: one line
// per student listing each recorded grade.
func ClassReportTextDocument(report *models.ClassReport) export.Document {
	lines := make([]string, 0, len(report.Students))
	for _, st := range report.Students {
		parts := make([]string, 0, len(st.Grades))
		for _, g := range st.Grades {
			if g.Grade != nil {
				parts = append(parts, fmt.Sprintf("%s: %s", g.ActivityName, formatGrade(*g.Grade)))
			}
		}
		detail := "No grades"
		if len(parts) > 0 {
			detail = strings.Join(parts, " | ")
		}
		lines = append(lines, fmt.Sprintf("%s - %s -> %s", st.RegistrationCode, st.Name, detail))
	}
	if len(lines) == 0 {
		lines = []string{"No students enrolled."}
	}
	return export.Document{
		Title:    "Class report - " + report.Class.Name,
		Sections: []export.Section{{Lines: lines}, {Heading: "Summary", Lines: classSummaryLines(report)}},
	}
}

// TranscriptDocument lays a student transcript out as one section per class.
func TranscriptDocument(t *models.StudentTranscript) export.Document {
	doc := export.Document{
		Title: "Report card",
		Header: []string{
			"Student: " + t.Student.Name,
			fmt.Sprintf("Registration code: %s | ID: %d", t.Student.RegistrationCode, t.Student.ID),
		},
	}
	if len(t.Classes) == 0 {
		doc.Sections = []export.Section{{Lines: []string{"Not enrolled in any class."}}}
	}
	for _, class := range t.Classes {
		section := export.Section{Heading: "Class: " + class.ClassName}
		if len(class.Activities) == 0 {
			section.Lines = []string{"No activities in this class."}
		} else {
			rows := make([]map[string]string, 0, len(class.Activities))
			for _, a := range class.Activities {
				grade := noValue
				if a.Grade != nil {
					grade = formatGrade(*a.Grade)
				}
				rows = append(rows, map[string]string{"Activity": a.ActivityName, "Description": a.Description, "Grade": grade})
			}
			section.Table = export.Dataset{Headers: []string{"Activity", "Description", "Grade"}, Rows: rows}
			if class.Average != nil {
				section.Lines = []string{fmt.Sprintf("Class average: %.2f", *class.Average)}
			} else {
				section.Lines = []string{"Class average: - (no grades)"}
			}
		}
		doc.Sections = append(doc.Sections, section)
	}
	if t.OverallAverage == nil {
		doc.Footer = []string{fmt.Sprintf("Overall average: - | Standing: %s (no grades)", t.Standing)}
	} else {
		doc.Footer = []string{fmt.Sprintf("Overall average: %.2f | Standing: %s (pass mark %.2f)", *t.OverallAverage, t.Standing, t.PassThreshold)}
	}
	return doc
}
