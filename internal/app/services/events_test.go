package services

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories/memory"
	"github.com/yigit/enrollhub/internal/app/rules"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (p *recordingPublisher) Publish(e models.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) summary() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Entity+" "+string(e.Kind))
	}
	return out
}

func TestPublisherSeesCommittedWritesOnly(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewServices(memory.New(), rules.NewEngine(rules.Options{}), zerolog.Nop(), WithPublisher(pub))

	s := mustStudent(t, svc, "Maria", "maria@example.com")
	c := mustCourse(t, svc, "Go", "100")
	draft := models.EnrollmentDraft{StudentID: s.ID, CourseID: c.ID, Status: "Active", Progress: 10}
	if _, err := svc.EnrollmentService.Create(ctx, draft); err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	if _, err := svc.EnrollmentService.Create(ctx, draft); err == nil {
		t.Fatal("expected duplicate enrollment to fail")
	}
	updated, err := svc.EnrollmentService.Update(ctx, draft.Key(), models.EnrollmentChanges{Progress: intPtr(50)})
	if err != nil {
		t.Fatalf("update enrollment: %v", err)
	}
	if err := svc.CourseService.Delete(ctx, c.ID); err == nil {
		t.Fatal("expected course delete to be denied")
	}
	if err := svc.EnrollmentService.Delete(ctx, draft.Key()); err != nil {
		t.Fatalf("delete enrollment: %v", err)
	}
	if err := svc.EnrollmentService.Delete(ctx, draft.Key()); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if err := svc.CourseService.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete course: %v", err)
	}

	want := []string{
		"student created",
		"course created",
		"enrollment created",
		"enrollment updated",
		"enrollment deleted",
		"course deleted",
	}
	got := pub.summary()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if e := pub.events[3]; e.Version != updated.Version || e.StudentID != s.ID || e.CourseID != c.ID {
		t.Fatalf("update event carries wrong key or version: %+v", e)
	}
	if e := pub.events[5]; e.ID != c.ID {
		t.Fatalf("course delete event carries wrong id: %+v", e)
	}
}
