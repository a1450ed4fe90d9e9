package webinars

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexwebinar/backend/internal/models"
)

type fakeStore struct {
	webinars map[uuid.UUID]*models.Webinar
	tags     map[uuid.UUID][]TagRef
	actors   map[uuid.UUID]Actors
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		webinars: make(map[uuid.UUID]*models.Webinar),
		tags:     make(map[uuid.UUID][]TagRef),
		actors:   make(map[uuid.UUID]Actors),
	}
}

func (f *fakeStore) Create(_ context.Context, w *models.Webinar, tags []TagRef) error {
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	f.webinars[w.ID] = &cp
	f.tags[w.ID] = tags
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (*models.Webinar, error) {
	w, ok := f.webinars[id]
	if !ok || w.IsDeleted {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeStore) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	w, err := f.Get(ctx, id)
	if err != nil || w == nil {
		return nil, err
	}
	return &Detail{Webinar: *w, Registrations: []models.Registration{}, Supports: []models.Support{}}, nil
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, patch Patch) (*models.Webinar, error) {
	w, ok := f.webinars[id]
	if !ok || w.IsDeleted {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		w.Title = *patch.Title
	}
	if patch.Description != nil {
		w.Description = *patch.Description
	}
	if patch.DateTime != nil {
		w.DateTime = *patch.DateTime
	}
	if patch.Duration != nil {
		w.Duration = *patch.Duration
	}
	if patch.LegalTopic != nil {
		w.LegalTopic = *patch.LegalTopic
	}
	if patch.MaxCapacity != nil {
		w.MaxCapacity = *patch.MaxCapacity
	}
	if patch.AccessLink != nil {
		link := *patch.AccessLink
		w.AccessLink = &link
	}
	if patch.ReplaceTags {
		f.tags[id] = patch.Tags
	}
	w.UpdatedAt = time.Now()
	cp := *w
	return &cp, nil
}

func (f *fakeStore) SetStatus(_ context.Context, id uuid.UUID, status models.WebinarStatus) error {
	w, ok := f.webinars[id]
	if !ok || w.IsDeleted {
		return ErrNotFound
	}
	w.Status = status
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	w, ok := f.webinars[id]
	if !ok || w.IsDeleted {
		return ErrNotFound
	}
	w.IsDeleted = true
	w.DeletedAt = &at
	return nil
}

func (f *fakeStore) List(_ context.Context, page, limit int) ([]models.Webinar, int, error) {
	var all []models.Webinar
	for _, w := range f.webinars {
		if !w.IsDeleted {
			all = append(all, *w)
		}
	}
	return all, len(all), nil
}

func (f *fakeStore) AssignActors(ctx context.Context, id uuid.UUID, actors Actors) (*models.Webinar, error) {
	w, ok := f.webinars[id]
	if !ok || w.IsDeleted {
		return nil, ErrNotFound
	}
	prev := f.actors[id]
	if actors.AnimatedByID != nil {
		prev.AnimatedByID = actors.AnimatedByID
	}
	if actors.ModeratedByID != nil {
		prev.ModeratedByID = actors.ModeratedByID
	}
	prev.CollaboratorIDs = actors.CollaboratorIDs
	f.actors[id] = prev
	w.AnimatedByID = prev.AnimatedByID
	w.ModeratedByID = prev.ModeratedByID
	cp := *w
	return &cp, nil
}

type fakeDirectory struct {
	known map[uuid.UUID]bool
}

func (f *fakeDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return f.known[id], nil
}

func validCreateInput() CreateInput {
	return CreateInput{
		Title:       "Introduction au droit bancaire",
		Description: "Panorama des fondamentaux du droit bancaire pour juristes.",
		DateTime:    time.Now().Add(72 * time.Hour),
		Duration:    90,
		LegalTopic:  "Droit Bancaire",
		MaxCapacity: 100,
		Tags:        []string{"Droit Bancaire", "Finance"},
	}
}

func newTestService() (*Service, *fakeStore, *fakeDirectory) {
	store := newFakeStore()
	dir := &fakeDirectory{known: make(map[uuid.UUID]bool)}
	return NewService(store, dir), store, dir
}

func TestCreateDefaultsToScheduled(t *testing.T) {
	svc, store, _ := newTestService()

	w, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, models.WebinarScheduled, w.Status)
	assert.NotEqual(t, uuid.Nil, w.ID)

	refs := store.tags[w.ID]
	require.Len(t, refs, 2)
	assert.Equal(t, "droit-bancaire", refs[0].Slug)
	assert.Equal(t, "finance", refs[1].Slug)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"short title", func(in *CreateInput) { in.Title = "ab" }},
		{"short description", func(in *CreateInput) { in.Description = "too short" }},
		{"duration below minimum", func(in *CreateInput) { in.Duration = 10 }},
		{"duration above maximum", func(in *CreateInput) { in.Duration = 481 }},
		{"short legal topic", func(in *CreateInput) { in.LegalTopic = "x" }},
		{"zero capacity", func(in *CreateInput) { in.MaxCapacity = 0 }},
		{"capacity above maximum", func(in *CreateInput) { in.MaxCapacity = 1001 }},
		{"missing date", func(in *CreateInput) { in.DateTime = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateRejectsBadAccessLink(t *testing.T) {
	svc, _, _ := newTestService()
	in := validCreateInput()
	link := "not a url"
	in.AccessLink = &link
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)

	link = "ftp://example.com/room"
	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)

	link = "https://meet.example.com/room/42"
	_, err = svc.Create(context.Background(), in)
	assert.NoError(t, err)
}

func TestCreateRejectsTooManyTags(t *testing.T) {
	svc, _, _ := newTestService()
	in := validCreateInput()
	in.Tags = []string{"a1", "b2", "c3", "d4", "e5"}
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateCollapsesDuplicateTags(t *testing.T) {
	svc, store, _ := newTestService()
	in := validCreateInput()
	// five entries but only four distinct slugs
	in.Tags = []string{"Droit Bancaire", "droit-bancaire", "RGPD", "Finance", "Compliance"}
	w, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, store.tags[w.ID], 4)
}

func TestUpdatePartialPatch(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	title := "Droit bancaire avancé"
	updated, err := svc.Update(ctx, w.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, w.Description, updated.Description)
}

func TestUpdateTagSemantics(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	require.Len(t, store.tags[w.ID], 2)

	// absent tag list leaves associations untouched
	title := "Nouveau titre de webinaire"
	_, err = svc.Update(ctx, w.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Len(t, store.tags[w.ID], 2)

	// a provided list replaces the set
	newTags := []string{"RGPD"}
	_, err = svc.Update(ctx, w.ID, UpdateInput{Tags: &newTags})
	require.NoError(t, err)
	require.Len(t, store.tags[w.ID], 1)
	assert.Equal(t, "rgpd", store.tags[w.ID][0].Slug)

	// an empty list clears the set
	empty := []string{}
	_, err = svc.Update(ctx, w.ID, UpdateInput{Tags: &empty})
	require.NoError(t, err)
	assert.Empty(t, store.tags[w.ID])
}

func TestUpdateUnknownWebinar(t *testing.T) {
	svc, _, _ := newTestService()
	title := "Titre suffisant"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to models.WebinarStatus
		ok       bool
	}{
		{models.WebinarScheduled, models.WebinarOngoing, true},
		{models.WebinarScheduled, models.WebinarCanceled, true},
		{models.WebinarScheduled, models.WebinarCompleted, false},
		{models.WebinarOngoing, models.WebinarCompleted, true},
		{models.WebinarOngoing, models.WebinarCanceled, false},
		{models.WebinarOngoing, models.WebinarScheduled, false},
		{models.WebinarCompleted, models.WebinarScheduled, false},
		{models.WebinarCompleted, models.WebinarOngoing, false},
		{models.WebinarCanceled, models.WebinarScheduled, false},
		{models.WebinarCanceled, models.WebinarOngoing, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			svc, store, _ := newTestService()
			ctx := context.Background()
			w, err := svc.Create(ctx, validCreateInput())
			require.NoError(t, err)
			store.webinars[w.ID].Status = tc.from

			got, err := svc.HandleStatus(ctx, w.ID, tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, got.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tc.from, store.webinars[w.ID].Status)
			}
		})
	}
}

func TestStatusSameIsNoop(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	got, err := svc.HandleStatus(ctx, w.ID, models.WebinarScheduled)
	require.NoError(t, err)
	assert.Equal(t, models.WebinarScheduled, got.Status)
}

func TestStatusRejectsUnknownValue(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = svc.HandleStatus(ctx, w.ID, models.WebinarStatus("PAUSED"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateAllowedOnCanceledWebinar(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	store.webinars[w.ID].Status = models.WebinarCanceled

	title := "Titre corrigé après annulation"
	updated, err := svc.Update(ctx, w.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
}

func TestDeleteHidesWebinar(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, w.ID))

	_, err = svc.FindOne(ctx, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := svc.FindAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestAssignActors(t *testing.T) {
	svc, _, dir := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	speaker := uuid.New()
	moderator := uuid.New()
	collab := uuid.New()
	dir.known[speaker] = true
	dir.known[moderator] = true
	dir.known[collab] = true

	got, err := svc.AssignActors(ctx, w.ID, Actors{
		AnimatedByID:    &speaker,
		ModeratedByID:   &moderator,
		CollaboratorIDs: []uuid.UUID{collab},
	})
	require.NoError(t, err)
	require.NotNil(t, got.AnimatedByID)
	assert.Equal(t, speaker, *got.AnimatedByID)
	require.NotNil(t, got.ModeratedByID)
	assert.Equal(t, moderator, *got.ModeratedByID)
}

func TestAssignActorsUnknownUser(t *testing.T) {
	svc, _, dir := newTestService()
	ctx := context.Background()
	w, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	ghost := uuid.New()
	_, err = svc.AssignActors(ctx, w.ID, Actors{AnimatedByID: &ghost})
	assert.ErrorIs(t, err, ErrActorNotFound)

	known := uuid.New()
	dir.known[known] = true
	_, err = svc.AssignActors(ctx, w.ID, Actors{
		AnimatedByID:    &known,
		CollaboratorIDs: []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, ErrActorNotFound)
}
