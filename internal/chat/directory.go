// Package chat holds the client-side conversation state: the session
// directory, the message log for the selected session, and the send
// pipeline around the API client.
package chat

import "github.com/sagehq/sage/internal/api"

// Directory is the ordered collection of sessions plus the current
// selection. Selection is UI-only state; the server never sees it.
type Directory struct {
	sessions []api.Session
	selected api.SessionID
}

// Replace swaps the session list wholesale, preserving server order.
// The selection is kept if the selected session survives, otherwise it
// falls back to the first session (or none).
func (d *Directory) Replace(sessions []api.Session) {
	d.sessions = sessions
	if _, ok := d.find(d.selected); ok {
		return
	}
	if len(sessions) > 0 {
		d.selected = sessions[0].ID
	} else {
		d.selected = ""
	}
}

// Sessions returns the current list in order.
func (d *Directory) Sessions() []api.Session {
	return d.sessions
}

// Len returns the number of sessions.
func (d *Directory) Len() int {
	return len(d.sessions)
}

// SelectedID returns the selected session id, or "" if none.
func (d *Directory) SelectedID() api.SessionID {
	return d.selected
}

// Selected returns the selected session, if any.
func (d *Directory) Selected() (api.Session, bool) {
	return d.find(d.selected)
}

// Select makes the session with the given id current. Returns false if
// it is not in the directory.
func (d *Directory) Select(id api.SessionID) bool {
	if _, ok := d.find(id); !ok {
		return false
	}
	d.selected = id
	return true
}

// Prepend inserts a newly created session at the head and selects it.
func (d *Directory) Prepend(sess api.Session) {
	d.sessions = append([]api.Session{sess}, d.sessions...)
	d.selected = sess.ID
}

// Rename updates a session title in place by id match.
func (d *Directory) Rename(id api.SessionID, title string) bool {
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			d.sessions[i].Title = title
			return true
		}
	}
	return false
}

// Remove deletes a session by id match. If the removed session was
// selected, selection falls back to the first remaining session, or to
// none if the list becomes empty.
func (d *Directory) Remove(id api.SessionID) bool {
	idx := -1
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	d.sessions = append(d.sessions[:idx], d.sessions[idx+1:]...)

	if d.selected == id {
		if len(d.sessions) > 0 {
			d.selected = d.sessions[0].ID
		} else {
			d.selected = ""
		}
	}
	return true
}

func (d *Directory) find(id api.SessionID) (api.Session, bool) {
	if id == "" {
		return api.Session{}, false
	}
	for _, s := range d.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return api.Session{}, false
}
