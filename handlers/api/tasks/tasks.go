package tasks

import (
	"net/http"

	"github.com/go-chi/render"

	"sharedlists/access"
	"sharedlists/core"
	"sharedlists/handlers/api"
)

type (
	CreateTaskRequest struct {
		ListID  int64  `json:"list_id"`
		Content string `json:"content"`
	}

	// UpdateTaskRequest fields are optional; omitted ones keep their value.
	UpdateTaskRequest struct {
		Content   *string `json:"content"`
		Completed *bool   `json:"completed"`
	}
)

func HandleCreate(svc *access.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		var req CreateTaskRequest
		if !api.Decode(w, r, &req) {
			return
		}

		task, err := svc.Create(r.Context(), req.ListID, actor, req.Content)
		if err != nil {
			api.WriteError(w, r, err, "Failed to create task")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, task)
	}
}

func HandleList(svc *access.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		listID, ok := api.IDParam(w, r, "listId")
		if !ok {
			return
		}

		tasks, err := svc.ListFor(r.Context(), listID, actor)
		if err != nil {
			api.WriteError(w, r, err, "Failed to fetch tasks")
			return
		}
		render.JSON(w, r, tasks)
	}
}

func HandleUpdate(svc *access.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		id, ok := api.IDParam(w, r, "id")
		if !ok {
			return
		}
		var req UpdateTaskRequest
		if !api.Decode(w, r, &req) {
			return
		}

		patch := core.TaskPatch{Content: req.Content, Completed: req.Completed}
		task, err := svc.Update(r.Context(), id, actor, patch)
		if err != nil {
			api.WriteError(w, r, err, "Failed to update task")
			return
		}
		render.JSON(w, r, task)
	}
}

func HandleDelete(svc *access.TaskService) http.HandlerFunc {
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
			api.WriteError(w, r, err, "Failed to delete task")
			return
		}
		api.Message(w, r, "Task deleted successfully")
	}
}
