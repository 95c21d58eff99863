package mindmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/skillscope/internal/application"
	appanalysis "github.com/bryanwahyu/skillscope/internal/application/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
	"github.com/bryanwahyu/skillscope/internal/infra/ai/prompt"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

// ErrExportDisabled is returned by Export when no object store is configured.
var ErrExportDisabled = errors.New("mind map export is not configured")

// Renderer draws a laid-out map as PNG.
type Renderer interface {
	RenderPNG(l mindmap.Layout, title string) ([]byte, error)
}

// ObjectStore uploads exported artifacts and returns their URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type Service struct {
	AI       ai.Client
	Repo     mindmap.Repository
	Renderer Renderer
	Store    ObjectStore
	Clock    application.Clock
	Log      *logger.Logger
}

type GenerateCommand struct {
	Topic        string
	InterestArea string
	SkillLevel   string
}

func (c GenerateCommand) params() (mindmap.Params, error) {
	topic, err := appanalysis.ValidateTopic(c.Topic)
	if err != nil {
		return mindmap.Params{}, err
	}
	level, ok := mindmap.ParseSkillLevel(c.SkillLevel)
	if !ok {
		return mindmap.Params{}, &domain.InputError{Message: "skillLevel must be one of beginner, intermediate, advanced"}
	}
	area := strings.TrimSpace(c.InterestArea)
	if area == "" {
		area = mindmap.DefaultInterestArea
	}
	return mindmap.Params{Topic: topic, InterestArea: area, SkillLevel: level}, nil
}

// Generate asks the model for a graph, strips fences and drops dangling edges.
func (s *Service) Generate(ctx context.Context, cmd GenerateCommand) (*mindmap.Graph, error) {
	p, err := cmd.params()
	if err != nil {
		return nil, err
	}
	s.Log.Info("generating mind map", "topic", p.Topic, "interest_area", p.InterestArea, "skill_level", p.SkillLevel)

	resp, err := s.AI.Generate(ctx, prompt.MindMapRequest(p))
	if err != nil {
		s.Log.Warn("mind map generation failed", "topic", p.Topic, "error", err)
		return nil, err
	}
	g, rep, err := mindmap.Parse(resp.Content)
	if err != nil {
		s.Log.Error("unusable mind map from model", "topic", p.Topic, "error", err)
		return nil, err
	}
	if rep.DroppedEdges > 0 || rep.DroppedNodes > 0 {
		s.Log.Warn("mind map normalized", "topic", p.Topic, "dropped_nodes", rep.DroppedNodes, "dropped_edges", rep.DroppedEdges)
	}
	return g, nil
}

type SaveCommand struct {
	GenerateCommand
	Graph mindmap.Graph
}

func (s *Service) Save(ctx context.Context, cmd SaveCommand) (*mindmap.Saved, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	p, err := cmd.params()
	if err != nil {
		return nil, err
	}
	g := cmd.Graph
	if _, err := g.Normalize(); err != nil {
		return nil, &domain.InputError{Message: "mindMap must contain nodes and one root node"}
	}
	m := &mindmap.Saved{
		ID:           mindmap.ID(uuid.NewString()),
		UserID:       user,
		Topic:        p.Topic,
		InterestArea: p.InterestArea,
		SkillLevel:   p.SkillLevel,
		Graph:        g,
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, m); err != nil {
		s.Log.Error("save mind map failed", "user_id", user, "topic", p.Topic, "error", err)
		return nil, domain.StoreError("save mind map", err)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]*mindmap.Saved, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	list, err := s.Repo.ListByUser(ctx, user, limit)
	if err != nil {
		return nil, domain.StoreError("list mind maps", err)
	}
	return list, nil
}

// Get returns a saved map owned by the caller. Maps of other users look missing.
func (s *Service) Get(ctx context.Context, id mindmap.ID) (*mindmap.Saved, error) {
	user := identity.UserID(ctx)
	if user == "" {
		return nil, domain.ErrUnauthenticated
	}
	m, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get mind map", err)
	}
	if m.UserID != user {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id mindmap.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return domain.StoreError("delete mind map", s.Repo.Delete(ctx, id))
}

func (s *Service) Layout(ctx context.Context, id mindmap.ID) (*mindmap.Saved, mindmap.Layout, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, mindmap.Layout{}, err
	}
	return m, mindmap.Arrange(&m.Graph), nil
}

func (s *Service) Image(ctx context.Context, id mindmap.ID) ([]byte, error) {
	m, l, err := s.Layout(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Renderer.RenderPNG(l, m.Topic)
}

type ExportResult struct {
	ImageURL string `json:"imageUrl"`
	DataURL  string `json:"dataUrl"`
}

// Export uploads the PNG and the JSON document of a saved map.
func (s *Service) Export(ctx context.Context, id mindmap.ID) (*ExportResult, error) {
	if s.Store == nil {
		return nil, ErrExportDisabled
	}
	m, l, err := s.Layout(ctx, id)
	if err != nil {
		return nil, err
	}
	png, err := s.Renderer.RenderPNG(l, m.Topic)
	if err != nil {
		return nil, fmt.Errorf("render mind map: %w", err)
	}
	doc, err := json.Marshal(struct {
		*mindmap.Saved
		Layout mindmap.Layout `json:"layout"`
	}{m, l})
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("mindmaps/%s/%s", m.UserID, m.ID)
	imgURL, err := s.Store.Put(ctx, base+".png", "image/png", png)
	if err != nil {
		s.Log.Error("export mind map image failed", "id", m.ID, "error", err)
		return nil, domain.StoreError("export image", err)
	}
	dataURL, err := s.Store.Put(ctx, base+".json", "application/json", doc)
	if err != nil {
		s.Log.Error("export mind map data failed", "id", m.ID, "error", err)
		return nil, domain.StoreError("export data", err)
	}
	return &ExportResult{ImageURL: imgURL, DataURL: dataURL}, nil
}
