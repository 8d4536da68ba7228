package surrealdb

import (
	"fmt"
	"strings"

	"github.com/notefolio/notefolio/pkg/store"
)

// renderSelect builds the one-shot SurrealQL for q. Notes order newest
// first with an id tiebreak so the cursor predicate is a strict total
// order; folders order by name.
func renderSelect(q store.Query) (string, map[string]any) {
	where, vars := renderWhere(q)
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(q.Collection)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if q.Collection == store.CollectionFolders {
		b.WriteString(" ORDER BY name ASC, id ASC")
	} else {
		b.WriteString(" ORDER BY createdAt DESC, id ASC")
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), vars
}

// renderLive builds the LIVE SELECT for q. Live queries carry the filter
// but never the cursor, order, or limit: the server pushes per-record
// deltas, and the watcher re-runs the bounded one-shot query to rebuild
// the ordered window.
func renderLive(q store.Query) (string, map[string]any) {
	base := q
	base.Cursor = nil
	where, vars := renderWhere(base)
	var b strings.Builder
	b.WriteString("LIVE SELECT * FROM ")
	b.WriteString(q.Collection)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	return b.String(), vars
}

func renderWhere(q store.Query) (string, map[string]any) {
	vars := map[string]any{}
	var conds []string
	if q.Owner != nil {
		conds = append(conds, "userId = $owner")
		vars["owner"] = *q.Owner
	}
	if q.Folder != nil {
		conds = append(conds, "folderId = $folder")
		vars["folder"] = *q.Folder
	}
	if q.PublicOnly {
		conds = append(conds, "isPublic = true")
	}
	if q.Cursor != nil {
		// Strictly after the cursor: older, or same instant with a
		// greater id.
		conds = append(conds, "(createdAt < $cursorAt OR (createdAt = $cursorAt AND id > type::thing($cursorTable, $cursorId)))")
		vars["cursorAt"] = q.Cursor.CreatedAt
		vars["cursorTable"] = q.Collection
		vars["cursorId"] = q.Cursor.ID
	}
	return strings.Join(conds, " AND "), vars
}
