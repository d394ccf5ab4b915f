package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// ReportService assembles read-only report trees. Dangling ids inside the
// records are skipped, never fatal.
type ReportService struct {
	store         recordStore
	passThreshold float64
	logger        *zap.Logger
	now           func() time.Time
}

// NewReportService constructs the report service. A threshold outside [0,10] falls back to 6.0.
func NewReportService(store recordStore, passThreshold float64, logger *zap.Logger) *ReportService {
	if passThreshold < models.MinGrade || passThreshold > models.MaxGrade {
		passThreshold = DefaultPassThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{store: store, passThreshold: passThreshold, logger: logger, now: time.Now}
}

// PassThreshold returns the configured pass mark.
func (s *ReportService) PassThreshold() float64 { return s.passThreshold }

func floatPtr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// ClassReport builds the class report card.
func (s *ReportService) ClassReport(ctx context.Context, classID int) (*models.ClassReport, error) {
	var (
		report *models.ClassReport
		err    error
	)
	s.store.View(func(v *repository.View) {
		var class models.Class
		if class, err = v.Class(classID); err != nil {
			return
		}
		report = s.buildClassReport(v, class)
	})
	if err != nil {
		return nil, translate(err, "class")
	}
	return report, nil
}

func (s *ReportService) buildClassReport(v *repository.View, class models.Class) *models.ClassReport {
	gb := NewGradebook(v)
	activities := classActivities(v, class)

	report := &models.ClassReport{
		Class: models.ClassSummary{
			ID:            class.ID,
			Name:          class.Name,
			StudentCount:  len(class.StudentIDs),
			ActivityCount: len(activities),
		},
		Activities:  make([]models.ActivityGrades, 0, len(activities)),
		Students:    make([]models.ClassReportStudent, 0, len(class.StudentIDs)),
		GeneratedAt: s.now().UTC(),
	}

	for _, activity := range activities {
		entry := models.ActivityGrades{ActivityID: activity.ID, Name: activity.Name, Description: activity.Description, Grades: make([]models.GradeRow, 0)}
		for _, sid := range class.StudentIDs {
			if grade, ok := activity.Grade(sid); ok {
				entry.Grades = append(entry.Grades, gradeRow(v, sid, grade))
			}
		}
		report.Activities = append(report.Activities, entry)
	}

	for _, sid := range class.StudentIDs {
		student, err := v.Student(sid)
		if err != nil {
			continue
		}
		row := models.ClassReportStudent{
			StudentSummary: models.StudentSummary{ID: student.ID, Name: student.Name, RegistrationCode: student.RegistrationCode},
			Grades:         activityGrades(activities, sid),
		}
		row.Average = floatPtr(gb.studentClassAverage(class, sid))
		report.Students = append(report.Students, row)
	}

	report.MeanGrade, _ = gb.pooledMean(class)
	report.Band = PerformanceBand(report.MeanGrade)
	if best, worst, ok := gb.bestAndWorst(class); ok {
		report.Best, report.Worst = &best, &worst
	}
	return report
}

func activityGrades(activities []models.Activity, studentID int) []models.ActivityGrade {
	out := make([]models.ActivityGrade, 0, len(activities))
	for _, activity := range activities {
		out = append(out, models.ActivityGrade{
			ActivityID:   activity.ID,
			ActivityName: activity.Name,
			Description:  activity.Description,
			Grade:        floatPtr(activity.Grade(studentID)),
		})
	}
	return out
}

// StudentTranscript builds the student's report card across every enrolled class.
func (s *ReportService) StudentTranscript(ctx context.Context, studentID int) (*models.StudentTranscript, error) {
	var (
		transcript *models.StudentTranscript
		err        error
	)
	s.store.View(func(v *repository.View) {
		var student models.Student
		if student, err = v.Student(studentID); err != nil {
			return
		}
		transcript = s.buildTranscript(v, student)
	})
	if err != nil {
		return nil, translate(err, "student")
	}
	return transcript, nil
}

func (s *ReportService) buildTranscript(v *repository.View, student models.Student) *models.StudentTranscript {
	gb := NewGradebook(v)
	classes := enrolledClasses(v, student.ID)
	transcript := &models.StudentTranscript{
		Student:       models.StudentSummary{ID: student.ID, Name: student.Name, RegistrationCode: student.RegistrationCode},
		Classes:       make([]models.TranscriptClass, 0, len(classes)),
		PassThreshold: s.passThreshold,
		GeneratedAt:   s.now().UTC(),
	}
	for _, class := range classes {
		transcript.Classes = append(transcript.Classes, models.TranscriptClass{
			ClassID:    class.ID,
			ClassName:  class.Name,
			Activities: activityGrades(classActivities(v, class), student.ID),
			Average:    floatPtr(gb.studentClassAverage(class, student.ID)),
		})
	}
	overall, ok := gb.OverallAverageForStudent(student.ID)
	transcript.OverallAverage = floatPtr(overall, ok)
	transcript.Standing = PassFail(overall, ok, s.passThreshold)
	return transcript
}

// Transcripts builds a transcript for every student, in store order.
func (s *ReportService) Transcripts(ctx context.Context) []models.StudentTranscript {
	var out []models.StudentTranscript
	s.store.View(func(v *repository.View) {
		students := v.Students()
		out = make([]models.StudentTranscript, 0, len(students))
		for _, student := range students {
			out = append(out, *s.buildTranscript(v, student))
		}
	})
	return out
}

// ClassAverage returns the student's average in one class.
func (s *ReportService) ClassAverage(ctx context.Context, classID, studentID int) (*models.StudentClassAverage, error) {
	var (
		avg float64
		ok  bool
		err error
	)
	s.store.View(func(v *repository.View) {
		avg, ok, err = NewGradebook(v).ClassAverageForStudent(classID, studentID)
	})
	if err != nil {
		return nil, err
	}
	return &models.StudentClassAverage{ClassID: classID, StudentID: studentID, Average: floatPtr(avg, ok)}, nil
}

// Standing returns the student's overall average and pass/fail outcome.
func (s *ReportService) Standing(ctx context.Context, studentID int) (*models.StudentStanding, error) {
	var (
		avg float64
		ok  bool
		err error
	)
	s.store.View(func(v *repository.View) {
		if _, err = v.Student(studentID); err != nil {
			return
		}
		avg, ok = NewGradebook(v).OverallAverageForStudent(studentID)
	})
	if err != nil {
		return nil, translate(err, "student")
	}
	return &models.StudentStanding{
		StudentID:      studentID,
		OverallAverage: floatPtr(avg, ok),
		Standing:       PassFail(avg, ok, s.passThreshold),
		PassThreshold:  s.passThreshold,
	}, nil
}

// PerformanceOverview returns the pooled mean grade and band of every class.
func (s *ReportService) PerformanceOverview(ctx context.Context) []models.ClassPerformance {
	out := make([]models.ClassPerformance, 0)
	s.store.View(func(v *repository.View) {
		gb := NewGradebook(v)
		for _, class := range v.Classes() {
			mean, count := gb.pooledMean(class)
			out = append(out, models.ClassPerformance{
				ClassID:    class.ID,
				ClassName:  class.Name,
				GradeCount: count,
				MeanGrade:  mean,
				Band:       PerformanceBand(mean),
			})
		}
	})
	return out
}

// Ranking returns the best and worst students of a class.
func (s *ReportService) Ranking(ctx context.Context, classID int) (*models.ClassRanking, error) {
	var (
		ranking *models.ClassRanking
		err     error
	)
	s.store.View(func(v *repository.View) {
		var class models.Class
		if class, err = v.Class(classID); err != nil {
			return
		}
		best, worst, ok := NewGradebook(v).bestAndWorst(class)
		if !ok {
			err = appErrors.Clone(appErrors.ErrNoData, "no enrolled student has a grade in this class")
			return
		}
		ranking = &models.ClassRanking{ClassID: class.ID, ClassName: class.Name, Best: best, Worst: worst}
	})
	if err != nil {
		return nil, translate(err, "class")
	}
	return ranking, nil
}
