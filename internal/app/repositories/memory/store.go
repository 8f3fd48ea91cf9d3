// Package memory is an in-process implementation of repositories.Store.
// It enforces the same keys and foreign key restrictions as the
// PostgreSQL schema and reports violations with the same constraint names.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"golang.org/x/text/cases"
)

type state struct {
	students    map[int64]models.Student
	courses     map[int64]models.Course
	enrollments map[models.EnrollmentKey]models.Enrollment
	lastStudent int64
	lastCourse  int64
}

func newState() state {
	return state{
		students:    map[int64]models.Student{},
		courses:     map[int64]models.Course{},
		enrollments: map[models.EnrollmentKey]models.Enrollment{},
	}
}

func (s state) clone() state {
	cp := newState()
	for id, v := range s.students {
		cp.students[id] = v
	}
	for id, v := range s.courses {
		cp.courses[id] = v
	}
	for key, v := range s.enrollments {
		cp.enrollments[key] = v
	}
	cp.lastStudent = s.lastStudent
	cp.lastCourse = s.lastCourse
	return cp
}

// Store keeps every table in maps guarded by one RWMutex. Transactions
// hold the write lock, work on a copy and swap it in on commit.
type Store struct {
	mu    sync.RWMutex
	state state
	fail  error
}

// New creates an empty Store
func New() *Store {
	return &Store{state: newState()}
}

var _ repositories.Store = (*Store)(nil)

// FailWith makes every subsequent operation return err until called with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) session() *session { return &session{store: s} }

func (s *Store) Students() repositories.StudentStore       { return studentTable{s.session()} }
func (s *Store) Courses() repositories.CourseStore         { return courseTable{s.session()} }
func (s *Store) Enrollments() repositories.EnrollmentStore { return enrollmentTable{s.session()} }

// WithinTx runs fn against a private copy of the data that replaces the
// shared state only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	return s.session().WithinTx(ctx, fn)
}

func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	return s.session().Stats(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.session().read(ctx, func(*state) error { return nil })
}

// session routes reads and writes either to the shared state, taking the
// lock per call, or to the copy owned by an open transaction.
type session struct {
	store *Store
	tx    *state
}

func (s *session) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if s.store.fail != nil {
		return s.store.fail
	}
	return fn(&s.store.state)
}

func (s *session) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.fail != nil {
		return s.store.fail
	}
	return fn(&s.store.state)
}

func (s *session) Students() repositories.StudentStore       { return studentTable{s} }
func (s *session) Courses() repositories.CourseStore         { return courseTable{s} }
func (s *session) Enrollments() repositories.EnrollmentStore { return enrollmentTable{s} }

func (s *session) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.fail != nil {
		return s.store.fail
	}

	work := s.store.state.clone()
	if err := fn(ctx, &session{store: s.store, tx: &work}); err != nil {
		return err
	}
	s.store.state = work
	return nil
}

func (s *session) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := s.read(ctx, func(st *state) error {
		stats = models.Stats{
			ConnectionOK: true,
			Students:     int64(len(st.students)),
			Courses:      int64(len(st.courses)),
			Enrollments:  int64(len(st.enrollments)),
		}
		return nil
	})
	return stats, err
}

func (s *session) Ping(ctx context.Context) error {
	return s.read(ctx, func(*state) error { return nil })
}

// fold returns the caseless form used for email and search comparisons.
// A Caser keeps state, so each call gets its own.
func fold(v string) string {
	return cases.Fold().String(v)
}

// searchNeedle prepares user supplied search text the way the SQL store does
func searchNeedle(search string) string {
	return fold(strings.TrimSpace(search))
}

func containsFolded(haystack, needle string) bool {
	return strings.Contains(fold(haystack), needle)
}

func countEnrollments(st *state, match func(models.EnrollmentKey) bool) int {
	n := 0
	for key := range st.enrollments {
		if match(key) {
			n++
		}
	}
	return n
}

// decorate attaches the student and course summaries a joined query returns.
func decorate(st *state, e models.Enrollment) *models.Enrollment {
	out := e
	if e.FinalGrade != nil {
		grade := *e.FinalGrade
		out.FinalGrade = &grade
	}
	if student, ok := st.students[e.StudentID]; ok {
		out.Student = &models.Student{ID: student.ID, Name: student.Name, Email: student.Email}
	}
	if course, ok := st.courses[e.CourseID]; ok {
		out.Course = &models.Course{ID: course.ID, Title: course.Title, BasePrice: course.BasePrice}
	}
	return &out
}

func sortEnrollments(st *state, list []*models.Enrollment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.EnrolledAt.Equal(b.EnrolledAt) {
			return a.EnrolledAt.Before(b.EnrolledAt)
		}
		an, bn := st.students[a.StudentID].Name, st.students[b.StudentID].Name
		if an != bn {
			return an < bn
		}
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		return a.CourseID < b.CourseID
	})
}
