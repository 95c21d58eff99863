package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appmindmap "github.com/bryanwahyu/skillscope/internal/application/mindmap"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
	"github.com/bryanwahyu/skillscope/internal/middleware"
)

type saveMindMapBody struct {
	Topic        string        `json:"topic" validate:"required,max=200"`
	InterestArea string        `json:"interestArea" validate:"max=200"`
	SkillLevel   string        `json:"skillLevel" validate:"omitempty,max=32"`
	MindMap      mindmap.Graph `json:"mindMap"`
}

// POST /mind-maps
func (r *Router) handleSaveMindMap(w http.ResponseWriter, req *http.Request) error {
	var body saveMindMapBody
	if err := decode(w, req, &body); err != nil {
		return err
	}
	body.Topic = middleware.SanitizeString(body.Topic)
	body.InterestArea = middleware.SanitizeString(body.InterestArea)
	if err := middleware.Validate(body); err != nil {
		return err
	}
	m, err := r.mindMaps.Save(req.Context(), appmindmap.SaveCommand{
		GenerateCommand: appmindmap.GenerateCommand{
			Topic:        body.Topic,
			InterestArea: body.InterestArea,
			SkillLevel:   body.SkillLevel,
		},
		Graph: body.MindMap,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, m)
}

// GET /mind-maps?limit=50
func (r *Router) handleListMindMaps(w http.ResponseWriter, req *http.Request) error {
	list, err := r.mindMaps.List(req.Context(), queryInt(req, "limit"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /mind-maps/{id}
func (r *Router) handleGetMindMap(w http.ResponseWriter, req *http.Request) error {
	m, err := r.mindMaps.Get(req.Context(), mindMapID(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, m)
}

// DELETE /mind-maps/{id}
func (r *Router) handleDeleteMindMap(w http.ResponseWriter, req *http.Request) error {
	if err := r.mindMaps.Delete(req.Context(), mindMapID(req)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /mind-maps/{id}/layout
func (r *Router) handleMindMapLayout(w http.ResponseWriter, req *http.Request) error {
	m, l, err := r.mindMaps.Layout(req.Context(), mindMapID(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"id": m.ID, "topic": m.Topic, "layout": l})
}

// GET /mind-maps/{id}/image.png
func (r *Router) handleMindMapImage(w http.ResponseWriter, req *http.Request) error {
	png, err := r.mindMaps.Image(req.Context(), mindMapID(req))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(png)
	return err
}

// POST /mind-maps/{id}/export
func (r *Router) handleExportMindMap(w http.ResponseWriter, req *http.Request) error {
	res, err := r.mindMaps.Export(req.Context(), mindMapID(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

func mindMapID(req *http.Request) mindmap.ID { return mindmap.ID(chi.URLParam(req, "id")) }
