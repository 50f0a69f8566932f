package shares

import (
	"net/http"

	"github.com/go-chi/render"

	"sharedlists/access"
	"sharedlists/core"
	"sharedlists/handlers/api"
)

type (
	// ShareRequest is the body of share and permission update calls.
	ShareRequest struct {
		ListID     int64  `json:"list_id"`
		UserID     string `json:"user_id"`
		Permission string `json:"permission"`
	}

	RevokeRequest struct {
		ListID int64  `json:"list_id"`
		UserID string `json:"user_id"`
	}
)

func parseLevel(s string) (core.Permission, error) {
	level, err := core.ParsePermission(s)
	if err != nil {
		return core.PermissionNone, &access.ValidationError{Field: "permission", Message: "must be owner, editor, or viewer"}
	}
	return level, nil
}

func HandleShare(svc *access.ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		var req ShareRequest
		if !api.Decode(w, r, &req) {
			return
		}
		level, err := parseLevel(req.Permission)
		if err != nil {
			api.WriteError(w, r, err, "")
			return
		}

		grant, err := svc.Share(r.Context(), req.ListID, actor, req.UserID, level)
		if err != nil {
			api.WriteError(w, r, err, "Failed to share list")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, grant)
	}
}

func HandleUpdatePermission(svc *access.ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		var req ShareRequest
		if !api.Decode(w, r, &req) {
			return
		}
		level, err := parseLevel(req.Permission)
		if err != nil {
			api.WriteError(w, r, err, "")
			return
		}

		grant, err := svc.UpdatePermission(r.Context(), req.ListID, actor, req.UserID, level)
		if err != nil {
			api.WriteError(w, r, err, "Failed to update permissions")
			return
		}
		render.JSON(w, r, grant)
	}
}

func HandleRevoke(svc *access.ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		var req RevokeRequest
		if !api.Decode(w, r, &req) {
			return
		}

		if err := svc.Revoke(r.Context(), req.ListID, actor, req.UserID); err != nil {
			api.WriteError(w, r, err, "Failed to remove access")
			return
		}
		api.Message(w, r, "Access removed successfully")
	}
}

func HandleList(svc *access.ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := api.Caller(w, r)
		if !ok {
			return
		}
		listID, ok := api.IDParam(w, r, "listId")
		if !ok {
			return
		}

		grants, err := svc.ListGrants(r.Context(), listID, actor)
		if err != nil {
			api.WriteError(w, r, err, "Failed to fetch shares")
			return
		}
		render.JSON(w, r, grants)
	}
}
