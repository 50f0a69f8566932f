package lists

import (
	"net/http"

	"github.com/go-chi/render"

	"sharedlists/access"
	"sharedlists/handlers/api"
)

type (
	CreateListRequest struct {
		Title string `json:"title"`
	}

	UpdateListRequest struct {
		Title string `json:"title"`
	}
)

// HandleCreate creates a list owned by the caller.
func HandleCreate(svc *access.ListService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		var req CreateListRequest
		if !api.Decode(w, r, &req) {
			return
		}

		list, err := svc.Create(r.Context(), req.Title, actor)
		if err != nil {
			api.WriteError(w, r, err, "Failed to create list")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, list)
	}
}

// HandleListMine returns every list the caller participates in.
func HandleListMine(svc *access.ListService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		lists, err := svc.ListFor(r.Context(), actor)
		if err != nil {
			api.WriteError(w, r, err, "Failed to fetch lists")
			return
		}
		render.JSON(w, r, lists)
	}
}

func HandleGet(svc *access.ListService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		id, ok := api.IDParam(w, r, "id")
		if !ok {
			return
		}
		detail, err := svc.GetDetail(r.Context(), id, actor)
		if err != nil {
			api.WriteError(w, r, err, "Failed to fetch list")
			return
		}
		render.JSON(w, r, detail)
	}
}

func HandleUpdate(svc *access.ListService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		id, ok := api.IDParam(w, r, "id")
		if !ok {
			return
		}
		var req UpdateListRequest
		if !api.Decode(w, r, &req) {
			return
		}
		list, err := svc.Update(r.Context(), id, actor, req.Title)
		if err != nil {
			api.WriteError(w, r, err, "Failed to update list")
			return
		}
		render.JSON(w, r, list)
	}
}

func HandleDelete(svc *access.ListService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		id, ok := api.IDParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id, actor); err != nil {
			api.WriteError(w, r, err, "Failed to delete list")
			return
		}
		api.Message(w, r, "List deleted")
	}
}
