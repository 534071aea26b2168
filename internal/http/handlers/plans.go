package handlers

import "net/http"

// Plans lists the catalog in display order, flagging the caller's plan when signed in.
func (a *App) Plans(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"plans": a.Resolver.Registry().All()}
	if p := a.currentProfile(r); p != nil {
		resp["current"] = a.Resolver.ResolvePlanID(p)
	}
	a.json(w, http.StatusOK, resp)
}
