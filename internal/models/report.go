package models

import "time"

// Standing is the pass/fail outcome of an overall average.
type Standing string

const (
	StandingPass         Standing = "PASS"
	StandingFail         Standing = "FAIL"
	StandingUndetermined Standing = "UNDETERMINED"
)

// PerformanceBand classifies a class mean grade.
type PerformanceBand string

const (
	BandExcellent PerformanceBand = "EXCELLENT"
	BandGood      PerformanceBand = "GOOD"
	BandAverage   PerformanceBand = "AVERAGE"
	BandBelow     PerformanceBand = "BELOW_EXPECTATIONS"
)

// Label returns the human-readable band description.
func (b PerformanceBand) Label() string {
	switch b {
	case BandExcellent:
		return "Excellent performance"
	case BandGood:
		return "Good performance"
	case BandAverage:
		return "Average performance"
	default:
		return "Below expected performance"
	}
}

// StudentSummary identifies a student inside report trees.
type StudentSummary struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	RegistrationCode string `json:"registration_code"`
}

// ClassSummary identifies a class inside report trees.
type ClassSummary struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	StudentCount  int    `json:"student_count"`
	ActivityCount int    `json:"activity_count"`
}

// StudentAverage pairs a student with a computed class average.
type StudentAverage struct {
	StudentSummary
	Average float64 `json:"average"`
}

// ActivityGrade is one activity line of a student's record; Grade is nil when not graded.
type ActivityGrade struct {
	ActivityID   int      `json:"activity_id"`
	ActivityName string   `json:"activity_name"`
	Description  string   `json:"description,omitempty"`
	Grade        *float64 `json:"grade,omitempty"`
}

// ActivityGrades is an activity with every recorded grade of enrolled students.
type ActivityGrades struct {
	ActivityID  int        `json:"activity_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Grades      []GradeRow `json:"grades"`
}

// ClassReportStudent is one student row of a class report.
type ClassReportStudent struct {
	StudentSummary
	Grades  []ActivityGrade `json:"grades"`
	Average *float64        `json:"average,omitempty"`
}

// ClassReport is the read-only projection rendered as a class report card.
type ClassReport struct {
	Class       ClassSummary         `json:"class"`
	Activities  []ActivityGrades     `json:"activities"`
	Students    []ClassReportStudent `json:"students"`
	MeanGrade   float64              `json:"mean_grade"`
	Band        PerformanceBand      `json:"band"`
	Best        *StudentAverage      `json:"best,omitempty"`
	Worst       *StudentAverage      `json:"worst,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// TranscriptClass is one class section of a student transcript.
type TranscriptClass struct {
	ClassID    int             `json:"class_id"`
	ClassName  string          `json:"class_name"`
	Activities []ActivityGrade `json:"activities"`
	Average    *float64        `json:"average,omitempty"`
}

// StudentTranscript is the read-only projection rendered as a report card for one student.
type StudentTranscript struct {
	Student        StudentSummary    `json:"student"`
	Classes        []TranscriptClass `json:"classes"`
	OverallAverage *float64          `json:"overall_average,omitempty"`
	Standing       Standing          `json:"standing"`
	PassThreshold  float64           `json:"pass_threshold"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// ClassPerformance is the pooled mean grade of one class.
type ClassPerformance struct {
	ClassID    int             `json:"class_id"`
	ClassName  string          `json:"class_name"`
	GradeCount int             `json:"grade_count"`
	MeanGrade  float64         `json:"mean_grade"`
	Band       PerformanceBand `json:"band"`
}

// ClassRanking holds the best and worst student averages of a class.
type ClassRanking struct {
	ClassID   int            `json:"class_id"`
	ClassName string         `json:"class_name"`
	Best      StudentAverage `json:"best"`
	Worst     StudentAverage `json:"worst"`
}

// ReportFormat enumerates rendered export formats.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ContentType returns the MIME type for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	case ReportFormatCSV:
		return "text/csv"
	case ReportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ExportResult describes a rendered report stored for download.
type ExportResult struct {
	RelativePath string       `json:"path"`
	Format       ReportFormat `json:"format"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// StudentClassAverage is a student's mean grade in one class; Average is nil when nothing is graded.
type StudentClassAverage struct {
	ClassID   int      `json:"class_id"`
	StudentID int      `json:"student_id"`
	Average   *float64 `json:"average"`
}

// StudentStanding is a student's overall average with its pass/fail outcome.
type StudentStanding struct {
	StudentID      int      `json:"student_id"`
	OverallAverage *float64 `json:"overall_average"`
	Standing       Standing `json:"standing"`
	PassThreshold  float64  `json:"pass_threshold"`
}
