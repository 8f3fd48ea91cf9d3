package memory

import (
	"context"
	"sort"

	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
)

type studentTable struct{ *session }

// cloneStudent copies the row columns only.
func cloneStudent(s models.Student) models.Student {
	if s.Phone != nil {
		phone := *s.Phone
		s.Phone = &phone
	}
	s.EnrollmentCount = 0
	s.Enrollments = nil
	return s
}

func cloneCourse(c models.Course) models.Course {
	if c.Description != nil {
		desc := *c.Description
		c.Description = &desc
	}
	c.EnrollmentCount = 0
	c.Enrollments = nil
	return c
}

func (t studentTable) emailTaken(st *state, email string, excludeID int64) bool {
	want := fold(email)
	for id, s := range st.students {
		if id != excludeID && fold(s.Email) == want {
			return true
		}
	}
	return false
}

func (t studentTable) withCount(st *state, s models.Student) *models.Student {
	s = cloneStudent(s)
	s.EnrollmentCount = countEnrollments(st, func(k models.EnrollmentKey) bool { return k.StudentID == s.ID })
	return &s
}

func (t studentTable) Create(ctx context.Context, student *models.Student) error {
	return t.write(ctx, func(st *state) error {
		if t.emailTaken(st, student.Email, 0) {
			return dberrors.NewConstraintError(dberrors.ErrUniqueViolation, dberrors.ConstraintStudentsEmail)
		}
		st.lastStudent++
		student.ID = st.lastStudent
		stored := cloneStudent(*student)
		st.students[stored.ID] = stored
		return nil
	})
}

func (t studentTable) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	var out *models.Student
	err := t.read(ctx, func(st *state) error {
		s, ok := st.students[id]
		if !ok {
			return apperrors.ErrStudentNotFound
		}
		out = t.withCount(st, s)
		return nil
	})
	return out, err
}

func (t studentTable) List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	out := []*models.Student{}
	needle := searchNeedle(filter.Search)
	err := t.read(ctx, func(st *state) error {
		for _, s := range st.students {
			if needle != "" && !containsFolded(s.Name, needle) && !containsFolded(s.Email, needle) {
				continue
			}
			out = append(out, t.withCount(st, s))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (t studentTable) Update(ctx context.Context, student *models.Student) error {
	return t.write(ctx, func(st *state) error {
		if _, ok := st.students[student.ID]; !ok {
			return apperrors.ErrStudentNotFound
		}
		if t.emailTaken(st, student.Email, student.ID) {
			return dberrors.NewConstraintError(dberrors.ErrUniqueViolation, dberrors.ConstraintStudentsEmail)
		}
		stored := cloneStudent(*student)
		st.students[stored.ID] = stored
		return nil
	})
}

func (t studentTable) EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	err := t.read(ctx, func(st *state) error {
		taken = t.emailTaken(st, email, excludeID)
		return nil
	})
	return taken, err
}

func (t studentTable) LockForDelete(ctx context.Context, id int64) (int, error) {
	var n int
	err := t.read(ctx, func(st *state) error {
		if _, ok := st.students[id]; !ok {
			return apperrors.ErrStudentNotFound
		}
		n = countEnrollments(st, func(k models.EnrollmentKey) bool { return k.StudentID == id })
		return nil
	})
	return n, err
}

func (t studentTable) Delete(ctx context.Context, id int64) error {
	return t.write(ctx, func(st *state) error {
		if _, ok := st.students[id]; !ok {
			return apperrors.ErrStudentNotFound
		}
		if countEnrollments(st, func(k models.EnrollmentKey) bool { return k.StudentID == id }) > 0 {
			return dberrors.NewConstraintError(dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsStudent)
		}
		delete(st.students, id)
		return nil
	})
}

type courseTable struct{ *session }

func (t courseTable) withCount(st *state, c models.Course) *models.Course {
	c = cloneCourse(c)
	c.EnrollmentCount = countEnrollments(st, func(k models.EnrollmentKey) bool { return k.CourseID == c.ID })
	return &c
}

func (t courseTable) Create(ctx context.Context, course *models.Course) error {
	return t.write(ctx, func(st *state) error {
		st.lastCourse++
		course.ID = st.lastCourse
		stored := cloneCourse(*course)
		st.courses[stored.ID] = stored
		return nil
	})
}

func (t courseTable) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	var out *models.Course
	err := t.read(ctx, func(st *state) error {
		c, ok := st.courses[id]
		if !ok {
			return apperrors.ErrCourseNotFound
		}
		out = t.withCount(st, c)
		return nil
	})
	return out, err
}

func (t courseTable) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	out := []*models.Course{}
	needle := searchNeedle(filter.Search)
	err := t.read(ctx, func(st *state) error {
		for _, c := range st.courses {
			if needle != "" && !containsFolded(c.Title, needle) {
				continue
			}
			out = append(out, t.withCount(st, c))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (t courseTable) Update(ctx context.Context, course *models.Course) error {
	return t.write(ctx, func(st *state) error {
		if _, ok := st.courses[course.ID]; !ok {
			return apperrors.ErrCourseNotFound
		}
		stored := cloneCourse(*course)
		st.courses[stored.ID] = stored
		return nil
	})
}

func (t courseTable) LockForDelete(ctx context.Context, id int64) (int, error) {
	var n int
	err := t.read(ctx, func(st *state) error {
		if _, ok := st.courses[id]; !ok {
			return apperrors.ErrCourseNotFound
		}
		n = countEnrollments(st, func(k models.EnrollmentKey) bool { return k.CourseID == id })
		return nil
	})
	return n, err
}

func (t courseTable) Delete(ctx context.Context, id int64) error {
	return t.write(ctx, func(st *state) error {
		if _, ok := st.courses[id]; !ok {
			return apperrors.ErrCourseNotFound
		}
		if countEnrollments(st, func(k models.EnrollmentKey) bool { return k.CourseID == id }) > 0 {
			return dberrors.NewConstraintError(dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsCourse)
		}
		delete(st.courses, id)
		return nil
	})
}

type enrollmentTable struct{ *session }

func stored(e *models.Enrollment) models.Enrollment {
	out := *e
	out.Student = nil
	out.Course = nil
	if e.FinalGrade != nil {
		grade := e.FinalGrade.Round(models.GradeScale)
		out.FinalGrade = &grade
	}
	out.PricePaid = e.PricePaid.Round(models.PriceScale)
	out.EnrolledAt = e.EnrolledAt.UTC()
	return out
}

func (t enrollmentTable) Create(ctx context.Context, e *models.Enrollment) error {
	return t.write(ctx, func(st *state) error {
		key := e.Key()
		if _, ok := st.enrollments[key]; ok {
			return dberrors.NewConstraintError(dberrors.ErrUniqueViolation, dberrors.ConstraintEnrollmentsPK)
		}
		if _, ok := st.students[key.StudentID]; !ok {
			return dberrors.NewConstraintError(dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsStudent)
		}
		if _, ok := st.courses[key.CourseID]; !ok {
			return dberrors.NewConstraintError(dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsCourse)
		}
		row := stored(e)
		row.Version = 1
		st.enrollments[key] = row
		e.Version = 1
		return nil
	})
}

func (t enrollmentTable) Get(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error) {
	var out *models.Enrollment
	err := t.read(ctx, func(st *state) error {
		e, ok := st.enrollments[key]
		if !ok {
			return apperrors.ErrEnrollmentNotFound
		}
		out = decorate(st, e)
		return nil
	})
	return out, err
}

func (t enrollmentTable) list(ctx context.Context, match func(st *state, e models.Enrollment) bool) ([]*models.Enrollment, error) {
	out := []*models.Enrollment{}
	err := t.read(ctx, func(st *state) error {
		for _, e := range st.enrollments {
			if match(st, e) {
				out = append(out, decorate(st, e))
			}
		}
		sortEnrollments(st, out)
		return nil
	})
	return out, err
}

func (t enrollmentTable) List(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error) {
	needle := searchNeedle(filter.Search)
	return t.list(ctx, func(st *state, e models.Enrollment) bool {
		if filter.Status != nil && e.Status != *filter.Status {
			return false
		}
		if needle == "" {
			return true
		}
		return containsFolded(st.students[e.StudentID].Name, needle) ||
			containsFolded(st.courses[e.CourseID].Title, needle)
	})
}

func (t enrollmentTable) ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	return t.list(ctx, func(_ *state, e models.Enrollment) bool { return e.StudentID == studentID })
}

func (t enrollmentTable) ListByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	return t.list(ctx, func(_ *state, e models.Enrollment) bool { return e.CourseID == courseID })
}

func (t enrollmentTable) Update(ctx context.Context, e *models.Enrollment, expectedVersion int64) error {
	return t.write(ctx, func(st *state) error {
		key := e.Key()
		current, ok := st.enrollments[key]
		if !ok || current.Version != expectedVersion {
			return dberrors.ErrVersionConflict
		}
		row := stored(e)
		row.Version = current.Version + 1
		st.enrollments[key] = row
		e.Version = row.Version
		return nil
	})
}

func (t enrollmentTable) Delete(ctx context.Context, key models.EnrollmentKey) (bool, error) {
	var removed bool
	err := t.write(ctx, func(st *state) error {
		_, removed = st.enrollments[key]
		delete(st.enrollments, key)
		return nil
	})
	return removed, err
}
