package mapping

// One table per collection. Every column that exists on both sides is
// listed, including the ones whose names already match.

var taskFields = []Field{
	{Remote: "id", Mirror: "id"},
	{Remote: "title", Mirror: "title"},
	{Remote: "priority", Mirror: "priority"},
	{Remote: "status", Mirror: "status"},
	{Remote: "due_date", Mirror: "dueDate"},
	{Remote: "assigned_to", Mirror: "assignedTo"},
	{Remote: "planned_day", Mirror: "plannedDay"},
	{Remote: "project_id", Mirror: "projectId"},
	{Remote: "completed_at", Mirror: "completedAt"},
	{Remote: "notes", Mirror: "notes"},
	{Remote: "created_at", Mirror: "createdAt"},
}

var projectFields = []Field{
	{Remote: "id", Mirror: "id"},
	{Remote: "title", Mirror: "title"},
	{Remote: "description", Mirror: "description"},
	{Remote: "status", Mirror: "status"},
	{Remote: "color", Mirror: "color"},
	{Remote: "monthly_revenue", Mirror: "monthlyRevenue"},
	{Remote: "logo_url", Mirror: "logoUrl"},
	{Remote: "doc_links", Mirror: "docLinks"},
	{Remote: "notes", Mirror: "notes"},
	{Remote: "created_at", Mirror: "createdAt"},
}

var eventFields = []Field{
	{Remote: "id", Mirror: "id"},
	{Remote: "title", Mirror: "title"},
	{Remote: "date", Mirror: "date"},
	{Remote: "time_of_day", Mirror: "timeOfDay"},
	{Remote: "type", Mirror: "type"},
}
