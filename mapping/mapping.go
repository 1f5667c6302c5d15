// Package mapping translates between the remote store's flat
// lower_snake field names and the mirror's camelCase field names.
//
// The translation is declared once per collection in tables.go and
// applied at exactly three boundaries: initial load, notification
// ingestion, and outgoing writes. Remote fields the mirror does not
// model pass through inbound untouched and are never emitted outbound;
// mirror-only fields are dropped outbound.
package mapping

import "github.com/woorkia/nexus-business/domain"

// Field declares one bidirectional field-name pair.
type Field struct {
	Remote string
	Mirror string
}

type table struct {
	toMirror map[string]string
	toRemote map[string]string
}

var tables = map[string]table{}

func init() {
	for collection, fields := range map[string][]Field{
		domain.CollectionTasks:    taskFields,
		domain.CollectionProjects: projectFields,
		domain.CollectionEvents:   eventFields,
	} {
		t := table{
			toMirror: make(map[string]string, len(fields)),
			toRemote: make(map[string]string, len(fields)),
		}
		for _, f := range fields {
			t.toMirror[f.Remote] = f.Mirror
			t.toRemote[f.Mirror] = f.Remote
		}
		tables[collection] = t
	}
}

// ToMirror renames a remote record's fields to mirror names. Unknown
// remote fields are kept as-is so not-yet-modeled columns survive a
// round trip through the mirror's raw record form.
func ToMirror(collection string, record map[string]any) map[string]any {
	t, ok := tables[collection]
	if !ok {
		return record
	}
	out := make(map[string]any, len(record))
	for k, v := range record {
		if mirror, ok := t.toMirror[k]; ok {
			out[mirror] = v
			continue
		}
		out[k] = v
	}
	return out
}

// ToRemote renames a mirror record's fields to remote names. Fields
// that exist only in the mirror are dropped.
func ToRemote(collection string, record map[string]any) map[string]any {
	t, ok := tables[collection]
	if !ok {
		return record
	}
	out := make(map[string]any, len(record))
	for k, v := range record {
		if remote, ok := t.toRemote[k]; ok {
			out[remote] = v
		}
	}
	return out
}
