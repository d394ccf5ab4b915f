package service

import (
	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// DefaultPassThreshold is the overall average needed to pass.
const DefaultPassThreshold = 6.0

// gradeReader is the read side the grading rules need; *repository.View satisfies it.
type gradeReader interface {
	Class(id int) (models.Class, error)
	Classes() []models.Class
	Activity(id int) (models.Activity, error)
	Student(id int) (models.Student, error)
}

// Gradebook evaluates grading rules against one consistent snapshot.
// Aggregates report "no data" through a false ok flag, never as zero.
type Gradebook struct {
	r gradeReader
}

// NewGradebook wraps a snapshot reader.
func NewGradebook(r gradeReader) Gradebook {
	return Gradebook{r: r}
}

func (g Gradebook) class(id int) (models.Class, error) {
	class, err := g.r.Class(id)
	if err != nil {
		return models.Class{}, translate(err, "class")
	}
	return class, nil
}

// studentClassAverage is the mean of the student's recorded grades over the
// class's activities. Dangling activity ids are ignored.
func (g Gradebook) studentClassAverage(class models.Class, studentID int) (float64, bool) {
	var sum float64
	var n int
	for _, aid := range class.ActivityIDs {
		activity, err := g.r.Activity(aid)
		if err != nil {
			continue
		}
		if grade, ok := activity.Grade(studentID); ok {
			sum += grade
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ClassAverageForStudent returns the student's mean grade in the class.
func (g Gradebook) ClassAverageForStudent(classID, studentID int) (float64, bool, error) {
	class, err := g.class(classID)
	if err != nil {
		return 0, false, err
	}
	if !class.HasStudent(studentID) {
		return 0, false, appErrors.ErrNotEnrolled
	}
	avg, ok := g.studentClassAverage(class, studentID)
	return avg, ok, nil
}

// OverallAverageForStudent is the mean of the student's defined class
// averages. Classes without grades are left out rather than counted as zero.
func (g Gradebook) OverallAverageForStudent(studentID int) (float64, bool) {
	var sum float64
	var n int
	for _, class := range g.r.Classes() {
		if !class.HasStudent(studentID) {
			continue
		}
		if avg, ok := g.studentClassAverage(class, studentID); ok {
			sum += avg
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// PassFail classifies an overall average against threshold.
func PassFail(average float64, ok bool, threshold float64) models.Standing {
	if !ok {
		return models.StandingUndetermined
	}
	if average >= threshold {
		return models.StandingPass
	}
	return models.StandingFail
}

// ClassMeanGrade pools every recorded grade of the class's activities.
// It returns 0 with count 0 when nothing is graded.
func (g Gradebook) ClassMeanGrade(classID int) (float64, int, error) {
	class, err := g.class(classID)
	if err != nil {
		return 0, 0, err
	}
	mean, count := g.pooledMean(class)
	return mean, count, nil
}

func (g Gradebook) pooledMean(class models.Class) (float64, int) {
	var sum float64
	var n int
	for _, aid := range class.ActivityIDs {
		activity, err := g.r.Activity(aid)
		if err != nil {
			continue
		}
		for _, grade := range activity.Grades {
			sum += grade
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// BestAndWorstInClass ranks enrolled students by class average. Ties go to
// the student enrolled first. ok is false when no enrolled student has a grade.
func (g Gradebook) BestAndWorstInClass(classID int) (best, worst models.StudentAverage, ok bool, err error) {
	class, err := g.class(classID)
	if err != nil {
		return best, worst, false, err
	}
	best, worst, ok = g.bestAndWorst(class)
	return best, worst, ok, nil
}

func (g Gradebook) bestAndWorst(class models.Class) (best, worst models.StudentAverage, ok bool) {
	for _, sid := range class.StudentIDs {
		avg, graded := g.studentClassAverage(class, sid)
		if !graded {
			continue
		}
		entry := models.StudentAverage{StudentSummary: g.summary(sid), Average: avg}
		if !ok {
			best, worst, ok = entry, entry, true
			continue
		}
		if avg > best.Average {
			best = entry
		}
		if avg < worst.Average {
			worst = entry
		}
	}
	return best, worst, ok
}

func (g Gradebook) summary(studentID int) models.StudentSummary {
	summary := models.StudentSummary{ID: studentID}
	if st, err := g.r.Student(studentID); err == nil {
		summary.Name = st.Name
		summary.RegistrationCode = st.RegistrationCode
	}
	return summary
}

// PerformanceBand classifies a class mean grade.
func PerformanceBand(mean float64) models.PerformanceBand {
	switch {
	case mean >= 8.5:
		return models.BandExcellent
	case mean >= 7:
		return models.BandGood
	case mean >= 5:
		return models.BandAverage
	default:
		return models.BandBelow
	}
}
