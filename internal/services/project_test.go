package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestProjectLifecycle(t *testing.T) {
	e := newTestEnv(t)
	_, ctx := e.signup(t)
	_, otherCtx := e.signup(t)

	first, err := e.projects.Create(ctx, ProjectInput{Title: "Garden", Notes: "spring"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := e.projects.Create(ctx, ProjectInput{Title: "Taxes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.Order <= first.Order {
		t.Fatalf("projects should append: %v then %v", first.Order, second.Order)
	}
	_, err = e.projects.Create(ctx, ProjectInput{Title: ""})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "title")

	title := "Vegetable garden"
	updated, err := e.projects.Update(ctx, first.ID, ProjectUpdateInput{Title: OptionalString{Set: true, Value: &title}})
	if err != nil || updated.Title != title || updated.Notes != "spring" {
		t.Fatalf("Update: %+v %v", updated, err)
	}

	if _, err := e.tasks.Create(ctx, TaskInput{Title: "Buy seeds", ProjectID: &first.ID}); err != nil {
		t.Fatalf("Create task: %v", err)
	}
	detail, err := e.projects.Get(ctx, first.ID, false)
	if err != nil || len(detail.Tasks) != 1 || detail.Title != title {
		t.Fatalf("Get: %+v %v", detail, err)
	}
	byProject, err := e.tasks.List(ctx, TaskListFilter{ProjectID: &first.ID})
	if err != nil || len(byProject) != 1 {
		t.Fatalf("List by project: %d %v", len(byProject), err)
	}

	_, err = e.projects.Get(otherCtx, first.ID, false)
	expectAppErr(t, err, http.StatusNotFound, "")

	done, err := e.projects.Complete(ctx, second.ID)
	if err != nil || done.CompletedAt == nil {
		t.Fatalf("Complete: %+v %v", done, err)
	}
	active, err := e.projects.List(ctx, ProjectListFilter{})
	if err != nil || len(active) != 1 || active[0].ID != first.ID {
		t.Fatalf("List active: %+v %v", active, err)
	}
	all, err := e.projects.List(ctx, ProjectListFilter{IncludeCompleted: true})
	if err != nil || len(all) != 2 {
		t.Fatalf("List all: %d %v", len(all), err)
	}
	if reopened, err := e.projects.Reopen(ctx, second.ID); err != nil || reopened.CompletedAt != nil {
		t.Fatalf("Reopen: %+v %v", reopened, err)
	}
}

func TestProjectDeleteKeepsTasks(t *testing.T) {
	e := newTestEnv(t)
	_, ctx := e.signup(t)
	project, err := e.projects.Create(ctx, ProjectInput{Title: "Wedding"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	task, err := e.tasks.Create(ctx, TaskInput{Title: "Book venue", ProjectID: &project.ID})
	if err != nil {
		t.Fatalf("Create task: %v", err)
	}

	if err := e.projects.Delete(ctx, project.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := e.tasks.Get(ctx, task.ID)
	if err != nil || got.ProjectID != nil {
		t.Fatalf("task should survive unlinked: %+v %v", got, err)
	}
	_, err = e.projects.Get(ctx, project.ID, true)
	expectAppErr(t, err, http.StatusNotFound, "")
}

func TestProjectReorder(t *testing.T) {
	e := newTestEnv(t)
	_, ctx := e.signup(t)
	var ids []uuid.UUID
	for _, title := range []string{"p1", "p2", "p3"} {
		p, err := e.projects.Create(ctx, ProjectInput{Title: title})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, p.ID)
	}

	before := ids[0]
	if _, err := e.projects.Reorder(ctx, ids[2], ReorderInput{BeforeID: &before}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	list, err := e.projects.List(ctx, ProjectListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := []uuid.UUID{list[0].ID, list[1].ID, list[2].ID}
	want := []uuid.UUID{ids[2], ids[0], ids[1]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i], want[i])
		}
	}

	// With p1 set aside the list is [p3, p2], so these anchors are adjacent.
	after, adjacentBefore := ids[2], ids[1]
	moved, err := e.projects.Reorder(ctx, ids[0], ReorderInput{AfterID: &after, BeforeID: &adjacentBefore})
	if err != nil {
		t.Fatalf("Reorder between adjacent anchors: %v", err)
	}
	if moved.Order <= list[0].Order || moved.Order >= list[2].Order {
		t.Fatalf("order %v not between %v and %v", moved.Order, list[0].Order, list[2].Order)
	}

	unknown := uuid.New()
	for name, in := range map[string]ReorderInput{
		"before not next to after": {AfterID: &after, BeforeID: &after},
		"before not in list":       {AfterID: &after, BeforeID: &unknown},
	} {
		_, err = e.projects.Reorder(ctx, ids[0], in)
		if err == nil {
			t.Fatalf("%s: expected 422 error, got nil", name)
		}
		expectAppErr(t, err, http.StatusUnprocessableEntity, "before_id")
	}
	_, err = e.projects.Reorder(ctx, ids[0], ReorderInput{AfterID: &unknown})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "after_id")
}
