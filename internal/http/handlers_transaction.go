package http

import (
	"errors"
	"net/http"
	"strconv"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.svc.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err, applog.OpList)
		return
	}
	writeJSON(w, r, http.StatusOK, newListResponse(core.ResolveViewState(f, list, nil)))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := ParseTransaction(w, r)
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.svc.Create(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err, applog.OpCreate)
		return
	}
	s.created.Add(1)

	w.Header().Set("Location", "/transactions/"+strconv.FormatInt(stored.ID, 10))
	writeJSON(w, r, http.StatusCreated, stored)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, applog.OpRead)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

// handleUpdateTransaction overwrites the record at {id}. Updating an id that
// does not exist succeeds without effect.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := ParseTransaction(w, r)
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = id

	if err := s.svc.Update(r.Context(), t); err != nil {
		writeServiceError(w, r, err, applog.OpUpdate)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.svc.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, applog.OpDelete)
		return
	}

	if err := s.session.Delete(r.Context(), t); err != nil {
		writeServiceError(w, r, err, applog.OpDelete)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUndoStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, undoResponse{Available: s.session.CanUndo()})
}

// handleUndoDelete restores the last transaction deleted through the API
// under a new id.
func (s *Server) handleUndoDelete(w http.ResponseWriter, r *http.Request) {
	restored, err := s.session.Undo(r.Context())
	if errors.Is(err, core.ErrNothingToUndo) {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeServiceError(w, r, err, applog.OpUndo)
		return
	}

	w.Header().Set("Location", "/transactions/"+strconv.FormatInt(restored.ID, 10))
	writeJSON(w, r, http.StatusCreated, restored)
}

func (s *Server) handleShareTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, applog.OpRead)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(core.ShareText(t)))
}
