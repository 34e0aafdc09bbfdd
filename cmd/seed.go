package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"conf-review/internal/model"
	"conf-review/internal/roster"
)

// SeedFile 描述启动时导入的会议、论文与评审人。
type SeedFile struct {
	Conferences []SeedConference `yaml:"conferences"`
}

type SeedConference struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Acronym   string       `yaml:"acronym"`
	Papers    []SeedPaper  `yaml:"papers"`
	Reviewers []SeedPerson `yaml:"reviewers"`
}

type SeedPaper struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Keywords []string `yaml:"keywords"`
}

type SeedPerson struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Email     string   `yaml:"email"`
	Expertise []string `yaml:"expertise"`
}

type seedStore interface {
	GetConference(ctx context.Context, id string) (*model.Conference, error)
	CreateConference(ctx context.Context, conf *model.Conference) error
	GetPaper(ctx context.Context, id string) (*model.Paper, error)
	CreatePaper(ctx context.Context, paper *model.Paper) error
}

type reviewerRegistrar interface {
	Register(ctx context.Context, req roster.Request) (model.ConferenceReviewer, error)
}

func loadSeedFile(ctx context.Context, path string, store seedStore, reg reviewerRegistrar) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	return applySeed(ctx, seed, store, reg)
}

// applySeed 导入种子数据，已存在的会议与论文保持不变，评审人按名单规则更新。
func applySeed(ctx context.Context, seed SeedFile, store seedStore, reg reviewerRegistrar) error {
	for _, c := range seed.Conferences {
		if c.ID == "" {
			return fmt.Errorf("%w: seed conference without id", model.ErrValidation)
		}
		if err := ensureConference(ctx, store, c); err != nil {
			return err
		}
		for _, p := range c.Papers {
			if p.ID == "" {
				return fmt.Errorf("%w: seed paper without id in conference %s", model.ErrValidation, c.ID)
			}
			_, err := store.GetPaper(ctx, p.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, model.ErrNotFound) {
				return err
			}
			paper := model.Paper{ID: p.ID, ConferenceID: c.ID, Title: p.Title, Keywords: p.Keywords}
			if err := store.CreatePaper(ctx, &paper); err != nil {
				return err
			}
		}
		for _, r := range c.Reviewers {
			req := roster.Request{ConferenceID: c.ID, ReviewerID: r.ID, Name: r.Name, Email: r.Email, Expertise: r.Expertise}
			if _, err := reg.Register(ctx, req); err != nil {
				return fmt.Errorf("seed reviewer %s: %w", r.ID, err)
			}
		}
	}
	return nil
}

func ensureConference(ctx context.Context, store seedStore, c SeedConference) error {
	_, err := store.GetConference(ctx, c.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return store.CreateConference(ctx, &model.Conference{ID: c.ID, Name: c.Name, Acronym: c.Acronym})
}
