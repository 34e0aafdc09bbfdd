package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"conf-review/internal/model"
	"conf-review/internal/roster"
)

func TestApplySeedSkipsExisting(t *testing.T) {
	t.Parallel()

	store := &stubSeedStore{conferences: map[string]bool{"c1": true}, papers: map[string]bool{"p1": true}}
	reg := &stubRegistrar{}
	seed := SeedFile{Conferences: []SeedConference{
		{ID: "c1", Papers: []SeedPaper{{ID: "p1"}, {ID: "p2", Keywords: []string{"nlp"}}}, Reviewers: []SeedPerson{{ID: "r1", Expertise: []string{"nlp"}}}},
		{ID: "c2", Name: "New"},
	}}

	if err := applySeed(context.Background(), seed, store, reg); err != nil {
		t.Fatalf("applySeed error: %v", err)
	}
	if fmt.Sprint(store.createdConferences) != "[c2]" {
		t.Fatalf("expected only c2 created, got %v", store.createdConferences)
	}
	if fmt.Sprint(store.createdPapers) != "[p2]" {
		t.Fatalf("expected only p2 created, got %v", store.createdPapers)
	}
	if len(reg.requests) != 1 || reg.requests[0].ConferenceID != "c1" {
		t.Fatalf("unexpected reviewer registrations: %+v", reg.requests)
	}
}

func TestApplySeedRejectsMissingIDs(t *testing.T) {
	t.Parallel()

	store := &stubSeedStore{conferences: map[string]bool{}, papers: map[string]bool{}}
	reg := &stubRegistrar{}

	if err := applySeed(context.Background(), SeedFile{Conferences: []SeedConference{{Name: "x"}}}, store, reg); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	seed := SeedFile{Conferences: []SeedConference{{ID: "c1", Papers: []SeedPaper{{Title: "no id"}}}}}
	if err := applySeed(context.Background(), seed, store, reg); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for paper, got %v", err)
	}
}

// --- stubs ---

type stubSeedStore struct {
	conferences        map[string]bool
	papers             map[string]bool
	createdConferences []string
	createdPapers      []string
}

func (s *stubSeedStore) GetConference(ctx context.Context, id string) (*model.Conference, error) {
	if !s.conferences[id] {
		return nil, fmt.Errorf("%w: conference %s", model.ErrNotFound, id)
	}
	return &model.Conference{ID: id}, nil
}

func (s *stubSeedStore) CreateConference(ctx context.Context, conf *model.Conference) error {
	s.conferences[conf.ID] = true
	s.createdConferences = append(s.createdConferences, conf.ID)
	return nil
}

func (s *stubSeedStore) GetPaper(ctx context.Context, id string) (*model.Paper, error) {
	if !s.papers[id] {
		return nil, fmt.Errorf("%w: paper %s", model.ErrNotFound, id)
	}
	return &model.Paper{ID: id}, nil
}

func (s *stubSeedStore) CreatePaper(ctx context.Context, paper *model.Paper) error {
	s.papers[paper.ID] = true
	s.createdPapers = append(s.createdPapers, paper.ID)
	return nil
}

type stubRegistrar struct {
	requests []roster.Request
}

func (s *stubRegistrar) Register(ctx context.Context, req roster.Request) (model.ConferenceReviewer, error) {
	s.requests = append(s.requests, req)
	return model.ConferenceReviewer{ConferenceID: req.ConferenceID, ReviewerID: req.ReviewerID}, nil
}
