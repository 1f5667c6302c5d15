package mapping

import (
	"reflect"
	"testing"

	"github.com/woorkia/nexus-business/domain"
)

func TestRoundTripEveryDeclaredField(t *testing.T) {
	for collection, fields := range map[string][]Field{
		domain.CollectionTasks:    taskFields,
		domain.CollectionProjects: projectFields,
		domain.CollectionEvents:   eventFields,
	} {
		remote := map[string]any{}
		for i, f := range fields {
			remote[f.Remote] = i
		}
		mirror := ToMirror(collection, remote)
		if len(mirror) != len(remote) {
			t.Fatalf("%s: mirror record lost fields: %v", collection, mirror)
		}
		for _, f := range fields {
			if _, ok := mirror[f.Mirror]; !ok {
				t.Fatalf("%s: missing mirror field %q", collection, f.Mirror)
			}
		}
		back := ToRemote(collection, mirror)
		if !reflect.DeepEqual(back, remote) {
			t.Fatalf("%s: round trip mismatch:\n got %v\nwant %v", collection, back, remote)
		}
	}
}

func TestToMirrorRenamesTaskFields(t *testing.T) {
	mirror := ToMirror(domain.CollectionTasks, map[string]any{
		"id":           "t1",
		"due_date":     "2025-04-01T09:00:00Z",
		"planned_day":  "monday",
		"completed_at": nil,
		"project_id":   "p1",
	})
	for _, want := range []string{"id", "dueDate", "plannedDay", "completedAt", "projectId"} {
		if _, ok := mirror[want]; !ok {
			t.Fatalf("missing %q in %v", want, mirror)
		}
	}
	for _, gone := range []string{"due_date", "planned_day", "completed_at", "project_id"} {
		if _, ok := mirror[gone]; ok {
			t.Fatalf("remote name %q leaked into mirror record", gone)
		}
	}
}

func TestUnknownRemoteFieldsPassThroughInbound(t *testing.T) {
	mirror := ToMirror(domain.CollectionTasks, map[string]any{
		"id":        "t1",
		"new_field": "surprise",
	})
	if mirror["new_field"] != "surprise" {
		t.Fatalf("unmodeled remote field dropped inbound: %v", mirror)
	}
}

func TestMirrorOnlyFieldsDroppedOutbound(t *testing.T) {
	remote := ToRemote(domain.CollectionTasks, map[string]any{
		"title":       "ok",
		"overdue":     true,
		"displayRank": 3,
	})
	if _, ok := remote["overdue"]; ok {
		t.Fatalf("mirror-only field leaked outbound: %v", remote)
	}
	if _, ok := remote["displayRank"]; ok {
		t.Fatalf("mirror-only field leaked outbound: %v", remote)
	}
	if remote["title"] != "ok" {
		t.Fatalf("shared field missing outbound: %v", remote)
	}
}
