package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

type (
	teacherTable  = table[models.Teacher, *models.Teacher]
	studentTable  = table[models.Student, *models.Student]
	classTable    = table[models.Class, *models.Class]
	activityTable = table[models.Activity, *models.Activity]
)

type state struct {
	teachers   *teacherTable
	students   *studentTable
	classes    *classTable
	activities *activityTable
}

func emptyState() *state {
	return &state{
		teachers:   newTable[models.Teacher](nil),
		students:   newTable[models.Student](nil),
		classes:    newTable[models.Class](nil),
		activities: newTable[models.Activity](nil),
	}
}

func (s *state) sequences() map[Collection]int {
	return map[Collection]int{
		CollectionTeachers:   s.teachers.seq,
		CollectionStudents:   s.students.seq,
		CollectionClasses:    s.classes.seq,
		CollectionActivities: s.activities.seq,
	}
}

func (s *state) seed(seqs map[Collection]int) {
	s.teachers.seed(seqs[CollectionTeachers])
	s.students.seed(seqs[CollectionStudents])
	s.classes.seed(seqs[CollectionClasses])
	s.activities.seed(seqs[CollectionActivities])
}

func (s *state) clone() *state {
	return &state{
		teachers:   s.teachers.clone(),
		students:   s.students.clone(),
		classes:    s.classes.clone(),
		activities: s.activities.clone(),
	}
}

// PersistObserver receives the duration and outcome of each collection save.
type PersistObserver interface {
	ObservePersist(collection string, duration time.Duration, err error)
}

// Option customises a Store.
type Option func(*Store)

// WithObserver attaches a persist observer (metrics).
func WithObserver(o PersistObserver) Option {
	return func(s *Store) { s.observer = o }
}

// WithReadOnly opens the store for reading only: Load does not write the
// documents back and Mutate fails with ErrReadOnly. Tools running next to a
// live API process use it so they never overwrite the API's documents.
func WithReadOnly() Option {
	return func(s *Store) { s.readOnly = true }
}

// Store owns the four record collections in memory and writes every change
// through to the sink. All mutations are serialised by one lock that is held
// across the cascade and its persist.
type Store struct {
	mu       sync.RWMutex
	state    *state
	sink     Sink
	validate *validator.Validate
	logger   *zap.Logger
	observer PersistObserver
	readOnly bool
}

// NewStore constructs a Store with empty collections. Call Load to read the sink.
func NewStore(sink Sink, validate *validator.Validate, logger *zap.Logger, opts ...Option) *Store {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{state: emptyState(), sink: sink, validate: validate, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collections with the sink's documents.
// Missing or undecodable documents load as empty collections; records that
// fail validation or repeat an earlier id or registration code are dropped.
// Id sequences resume from the persisted high-water marks. All documents are
// written back afterwards so that every collection exists in the sink.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := &state{}
	var err error
	var teachers []models.Teacher
	if teachers, err = loadCollection[models.Teacher](ctx, s, CollectionTeachers); err != nil {
		return err
	}
	var students []models.Student
	if students, err = loadCollection[models.Student](ctx, s, CollectionStudents); err != nil {
		return err
	}
	var classes []models.Class
	if classes, err = loadCollection[models.Class](ctx, s, CollectionClasses); err != nil {
		return err
	}
	var activities []models.Activity
	if activities, err = loadCollection[models.Activity](ctx, s, CollectionActivities); err != nil {
		return err
	}
	for i := range classes {
		if classes[i].StudentIDs == nil {
			classes[i].StudentIDs = []int{}
		}
		if classes[i].ActivityIDs == nil {
			classes[i].ActivityIDs = []int{}
		}
	}
	for i := range activities {
		if activities[i].Grades == nil {
			activities[i].Grades = map[int]float64{}
		}
	}
	loaded.teachers = newTable[models.Teacher](teachers)
	loaded.students = newTable[models.Student](students)
	loaded.classes = newTable[models.Class](classes)
	loaded.activities = newTable[models.Activity](activities)
	seqs, err := s.loadSequences(ctx)
	if err != nil {
		return err
	}
	loaded.seed(seqs)

	if !s.readOnly {
		for _, c := range append([]Collection{CollectionSequences}, Collections...) {
			if err := s.persist(ctx, loaded, c); err != nil {
				return err
			}
		}
	}
	s.state = loaded
	s.logger.Info("records loaded",
		zap.Int("teachers", len(teachers)),
		zap.Int("students", len(students)),
		zap.Int("classes", len(classes)),
		zap.Int("activities", len(activities)),
	)
	return nil
}

func (s *Store) loadSequences(ctx context.Context) (map[Collection]int, error) {
	payload, err := s.sink.Load(ctx, CollectionSequences)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", CollectionSequences, err)
	}
	seqs := map[Collection]int{}
	if len(payload) == 0 {
		return seqs, nil
	}
	if err := json.Unmarshal(payload, &seqs); err != nil {
		s.logger.Warn("id sequences unreadable, resuming from highest ids", zap.Error(err))
		return map[Collection]int{}, nil
	}
	return seqs, nil
}

func loadCollection[T any, P keyed[T]](ctx context.Context, s *Store, c Collection) ([]T, error) {
	payload, err := s.sink.Load(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	if len(payload) == 0 {
		s.logger.Info("collection missing, starting empty", zap.String("collection", string(c)))
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(payload, &rows); err != nil {
		s.logger.Warn("collection unreadable, starting empty", zap.String("collection", string(c)), zap.Error(err))
		return nil, nil
	}
	valid := rows[:0]
	ids := make(map[int]bool, len(rows))
	codes := make(map[string]bool, len(rows))
	for i := range rows {
		if err := s.validate.Struct(rows[i]); err != nil {
			s.logger.Warn("dropping invalid record", zap.String("collection", string(c)), zap.Int("index", i), zap.Error(err))
			continue
		}
		rec := P(&rows[i])
		if ids[rec.EntityID()] {
			s.logger.Warn("dropping record with duplicate id", zap.String("collection", string(c)), zap.Int("index", i), zap.Int("id", rec.EntityID()))
			continue
		}
		code := strings.ToLower(strings.TrimSpace(rec.Code()))
		if code != "" && codes[code] {
			s.logger.Warn("dropping record with duplicate registration code", zap.String("collection", string(c)), zap.Int("index", i), zap.String("code", rec.Code()))
			continue
		}
		ids[rec.EntityID()] = true
		if code != "" {
			codes[code] = true
		}
		valid = append(valid, rows[i])
	}
	return valid, nil
}

// View runs fn against the committed collections under a read lock.
func (s *Store) View(fn func(v *View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&View{state: s.state})
}

// Mutate runs fn against a working copy of the collections. When fn succeeds
// every collection it touched is persisted and the copy is committed. When fn
// or a save fails, the copy is discarded and the committed state is unchanged;
// documents already saved by the failed mutation are rewritten from the
// committed state.
func (s *Store) Mutate(ctx context.Context, fn func(tx *Tx) error) error {
	if s.readOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	tx := &Tx{View: View{state: work}, validate: s.validate, dirty: make(map[Collection]bool)}
	if err := fn(tx); err != nil {
		return err
	}

	pending := make([]Collection, 0, len(Collections)+1)
	if tx.inserted {
		pending = append(pending, CollectionSequences)
	}
	for _, c := range Collections {
		if tx.dirty[c] {
			pending = append(pending, c)
		}
	}
	for i, c := range pending {
		if err := s.persist(ctx, work, c); err != nil {
			s.restore(ctx, pending[:i])
			return err
		}
	}
	s.state = work
	return nil
}

// restore rewrites saved documents from the committed state after a later
// save of the same mutation failed.
func (s *Store) restore(ctx context.Context, saved []Collection) {
	for _, c := range saved {
		if err := s.persist(ctx, s.state, c); err != nil {
			s.logger.Error("failed to restore collection after aborted mutation", zap.String("collection", string(c)), zap.Error(err))
			continue
		}
		s.logger.Warn("restored collection after aborted mutation", zap.String("collection", string(c)))
	}
}

func (s *Store) persist(ctx context.Context, st *state, c Collection) error {
	var rows interface{}
	switch c {
	case CollectionTeachers:
		rows = st.teachers.rows
	case CollectionStudents:
		rows = st.students.rows
	case CollectionClasses:
		rows = st.classes.rows
	case CollectionActivities:
		rows = st.activities.rows
	case CollectionSequences:
		rows = st.sequences()
	default:
		return fmt.Errorf("%w: unknown collection %q", ErrPersist, c)
	}
	payload, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersist, c, err)
	}
	start := time.Now()
	err = s.sink.Save(ctx, c, payload)
	if s.observer != nil {
		s.observer.ObservePersist(string(c), time.Since(start), err)
	}
	if err != nil {
		s.logger.Error("persist failed", zap.String("collection", string(c)), zap.Error(err))
		return fmt.Errorf("%w: save %s: %w", ErrPersist, c, err)
	}
	return nil
}

// View is a read-only window over one consistent set of collections.
// Every returned record is a copy.
type View struct {
	state *state
}

func (v *View) Teachers() []models.Teacher { return v.state.teachers.list() }

func (v *View) Teacher(id int) (models.Teacher, error) { return v.state.teachers.get(id) }

func (v *View) TeacherByCode(code string) (models.Teacher, error) {
	return v.state.teachers.byCode(code)
}

func (v *View) Students() []models.Student { return v.state.students.list() }

func (v *View) Student(id int) (models.Student, error) { return v.state.students.get(id) }

func (v *View) StudentByCode(code string) (models.Student, error) {
	return v.state.students.byCode(code)
}

func (v *View) Classes() []models.Class { return v.state.classes.list() }

func (v *View) Class(id int) (models.Class, error) { return v.state.classes.get(id) }

func (v *View) Activities() []models.Activity { return v.state.activities.list() }

func (v *View) Activity(id int) (models.Activity, error) { return v.state.activities.get(id) }

// Tx is a working copy handed to Mutate callbacks. Writes mark their
// collection dirty so that only touched documents are rewritten.
type Tx struct {
	View
	validate *validator.Validate
	dirty    map[Collection]bool
	inserted bool
}

func (tx *Tx) check(rec interface{}) error {
	if err := tx.validate.Struct(rec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// CreateTeacher validates and inserts the teacher, assigning its ID.
func (tx *Tx) CreateTeacher(t *models.Teacher) error {
	if err := tx.check(t); err != nil {
		return err
	}
	if err := tx.state.teachers.insert(t); err != nil {
		return err
	}
	tx.inserted = true
	tx.dirty[CollectionTeachers] = true
	return nil
}

// UpdateTeacher replaces the stored teacher with the same ID.
func (tx *Tx) UpdateTeacher(t models.Teacher) error {
	if err := tx.check(&t); err != nil {
		return err
	}
	if err := tx.state.teachers.replace(&t); err != nil {
		return err
	}
	tx.dirty[CollectionTeachers] = true
	return nil
}

// DeleteTeacher removes the teacher.
func (tx *Tx) DeleteTeacher(id int) error {
	if err := tx.state.teachers.remove(id); err != nil {
		return err
	}
	tx.dirty[CollectionTeachers] = true
	return nil
}

// CreateStudent validates and inserts the student, assigning its ID.
func (tx *Tx) CreateStudent(st *models.Student) error {
	if err := tx.check(st); err != nil {
		return err
	}
	if err := tx.state.students.insert(st); err != nil {
		return err
	}
	tx.inserted = true
	tx.dirty[CollectionStudents] = true
	return nil
}

// UpdateStudent replaces the stored student with the same ID.
func (tx *Tx) UpdateStudent(st models.Student) error {
	if err := tx.check(&st); err != nil {
		return err
	}
	if err := tx.state.students.replace(&st); err != nil {
		return err
	}
	tx.dirty[CollectionStudents] = true
	return nil
}

// DeleteStudent removes only the student record; callers purge references.
func (tx *Tx) DeleteStudent(id int) error {
	if err := tx.state.students.remove(id); err != nil {
		return err
	}
	tx.dirty[CollectionStudents] = true
	return nil
}

// CreateClass validates and inserts the class, assigning its ID.
func (tx *Tx) CreateClass(c *models.Class) error {
	if c.StudentIDs == nil {
		c.StudentIDs = []int{}
	}
	if c.ActivityIDs == nil {
		c.ActivityIDs = []int{}
	}
	if err := tx.check(c); err != nil {
		return err
	}
	if err := tx.state.classes.insert(c); err != nil {
		return err
	}
	tx.inserted = true
	tx.dirty[CollectionClasses] = true
	return nil
}

// UpdateClass replaces the stored class with the same ID.
func (tx *Tx) UpdateClass(c models.Class) error {
	if err := tx.check(&c); err != nil {
		return err
	}
	if err := tx.state.classes.replace(&c); err != nil {
		return err
	}
	tx.dirty[CollectionClasses] = true
	return nil
}

// DeleteClass removes only the class record; callers purge references.
func (tx *Tx) DeleteClass(id int) error {
	if err := tx.state.classes.remove(id); err != nil {
		return err
	}
	tx.dirty[CollectionClasses] = true
	return nil
}

// CreateActivity validates and inserts the activity, assigning its ID.
func (tx *Tx) CreateActivity(a *models.Activity) error {
	if a.Grades == nil {
		a.Grades = map[int]float64{}
	}
	if err := tx.check(a); err != nil {
		return err
	}
	if err := tx.state.activities.insert(a); err != nil {
		return err
	}
	tx.inserted = true
	tx.dirty[CollectionActivities] = true
	return nil
}

// UpdateActivity replaces the stored activity with the same ID.
func (tx *Tx) UpdateActivity(a models.Activity) error {
	if err := tx.check(&a); err != nil {
		return err
	}
	if err := tx.state.activities.replace(&a); err != nil {
		return err
	}
	tx.dirty[CollectionActivities] = true
	return nil
}

// DeleteActivity removes only the activity record; callers purge references.
func (tx *Tx) DeleteActivity(id int) error {
	if err := tx.state.activities.remove(id); err != nil {
		return err
	}
	tx.dirty[CollectionActivities] = true
	return nil
}
