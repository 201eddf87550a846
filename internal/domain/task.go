package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses. The string values are part of the public API.
const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Priority ranks tasks.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Task validation errors
var (
	ErrEmptyTaskID        = validationError("task ID cannot be empty")
	ErrEmptyTitle         = validationError("title cannot be empty")
	ErrInvalidStatus      = validationError("invalid task status")
	ErrInvalidPriority    = validationError("invalid task priority")
	ErrEmptyCreator       = validationError("task creator cannot be empty")
	ErrEmptyChecklistText = validationError("checklist item text cannot be empty")
	ErrInvalidProgress    = validationError("progress must be between 0 and 100")
	ErrInvalidAssignee    = validationError("assignee ID cannot be empty")
	ErrChecklistComplete  = validationError("every checklist item is done; only Completed applies")
)

// ChecklistItem is one entry of a task's checklist. Text is the natural key
// used when merging updates; ID is assigned once and never changes.
type ChecklistItem struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
}

// ChecklistUpdate is an incoming checklist entry. A nil Completed leaves the
// existing value untouched when the entry matches an existing item.
type ChecklistUpdate struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	Text      string     `json:"text"`
	Completed *bool      `json:"completed,omitempty"`
}

// Task is a unit of work assigned to one or more users.
type Task struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Status        TaskStatus      `json:"status"`
	Priority      Priority        `json:"priority"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	AssignedTo    []uuid.UUID     `json:"assignedTo"`
	CreatedBy     uuid.UUID       `json:"createdBy"`
	Checklist     []ChecklistItem `json:"checklist"`
	Progress      int             `json:"progress"`
	Attachments   []string        `json:"attachments"`
	Notifications []uuid.UUID     `json:"notifications"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// TaskSummary is the subset of a task shown next to a notification.
type TaskSummary struct {
	ID      uuid.UUID  `json:"id"`
	Title   string     `json:"title"`
	Status  TaskStatus `json:"status"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// TaskWithAssignees is a task with its assignees resolved for display.
type TaskWithAssignees struct {
	Task
	Assignees []UserSummary `json:"assignees"`
}

// NewTask creates a validated task. Status and progress are derived from the
// checklist; an empty priority defaults to Medium.
func NewTask(
	title, description string,
	priority Priority,
	dueDate *time.Time,
	assignedTo []uuid.UUID,
	createdBy uuid.UUID,
	checklist []ChecklistUpdate,
	attachments []string,
) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(title),
		Description:   strings.TrimSpace(description),
		Status:        StatusPending,
		Priority:      priority,
		DueDate:       dueDate,
		AssignedTo:    dedupeIDs(assignedTo),
		CreatedBy:     createdBy,
		Checklist:     []ChecklistItem{},
		Attachments:   nonNilStrings(attachments),
		Notifications: []uuid.UUID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.ReplaceChecklist(checklist); err != nil {
		return nil, err
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if t.CreatedBy == uuid.Nil {
		return ErrEmptyCreator
	}
	if t.Progress < 0 || t.Progress > 100 {
		return ErrInvalidProgress
	}
	for _, id := range t.AssignedTo {
		if id == uuid.Nil {
			return ErrInvalidAssignee
		}
	}
	for _, item := range t.Checklist {
		if strings.TrimSpace(item.Text) == "" {
			return ErrEmptyChecklistText
		}
	}
	return nil
}

// MergeChecklist folds incoming entries into the checklist and recomputes
// progress and status.
//
// Entries are matched by trimmed text against the checklist as it was before
// the call. A match overrides the item's fields in place and keeps its ID; an
// unmatched entry is appended with a fresh ID. Because matching only sees the
// pre-merge checklist, two new entries with the same text in one batch are
// both appended.
//
// Every entry is validated before anything changes, so a rejected batch
// leaves the task untouched.
func (t *Task) MergeChecklist(incoming []ChecklistUpdate) error {
	normalized, err := normalizeUpdates(incoming)
	if err != nil {
		return err
	}

	existing := make(map[string]int, len(t.Checklist))
	for i, item := range t.Checklist {
		key := strings.TrimSpace(item.Text)
		if _, seen := existing[key]; !seen {
			existing[key] = i
		}
	}

	merged := make([]ChecklistItem, len(t.Checklist), len(t.Checklist)+len(normalized))
	copy(merged, t.Checklist)

	for _, update := range normalized {
		if idx, ok := existing[update.Text]; ok {
			item := merged[idx]
			item.Text = update.Text
			if update.Completed != nil {
				item.Completed = *update.Completed
			}
			merged[idx] = item
			continue
		}

		merged = append(merged, ChecklistItem{
			ID:        uuid.New(),
			Text:      update.Text,
			Completed: update.Completed != nil && *update.Completed,
		})
	}

	t.Checklist = merged
	t.RecalculateProgress()
	return nil
}

// ReplaceChecklist swaps the whole checklist, as an administrator edit does.
// Entries that carry an ID keep it; the rest get a fresh one. Entries whose
// trimmed text repeats an earlier one are dropped, so every item stays
// reachable by a later merge.
func (t *Task) ReplaceChecklist(incoming []ChecklistUpdate) error {
	normalized, err := normalizeUpdates(incoming)
	if err != nil {
		return err
	}
	normalized = dedupeUpdates(normalized)

	checklist := make([]ChecklistItem, 0, len(normalized))
	for _, update := range normalized {
		id := uuid.New()
		if update.ID != nil && *update.ID != uuid.Nil {
			id = *update.ID
		}
		checklist = append(checklist, ChecklistItem{
			ID:        id,
			Text:      update.Text,
			Completed: update.Completed != nil && *update.Completed,
		})
	}

	t.Checklist = checklist
	t.RecalculateProgress()
	return nil
}

// RecalculateProgress derives Progress and Status from the checklist.
// An empty checklist yields 0 and Pending.
func (t *Task) RecalculateProgress() {
	completed := t.CompletedCount()
	total := len(t.Checklist)

	progress := 0
	if total > 0 {
		progress = int(math.Round(100 * float64(completed) / float64(total)))
	}

	t.Progress = progress
	t.Status = StatusForProgress(progress)
	t.UpdatedAt = time.Now().UTC()
}

// SetStatus sets the status directly. Completed forces progress to 100 and
// marks every item done. Any other status is rejected while a non-empty
// checklist is fully done; uncheck an item instead. Without a checklist,
// progress follows the status.
func (t *Task) SetStatus(status TaskStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	total := len(t.Checklist)
	switch {
	case status == StatusCompleted:
		t.Progress = 100
		for i := range t.Checklist {
			t.Checklist[i].Completed = true
		}
	case total > 0 && t.CompletedCount() == total:
		return ErrChecklistComplete
	case total == 0:
		t.Progress = 0
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Summary returns the task's display summary.
func (t *Task) Summary() TaskSummary {
	return TaskSummary{ID: t.ID, Title: t.Title, Status: t.Status, DueDate: t.DueDate}
}

// CompletedCount returns the number of completed checklist items.
func (t *Task) CompletedCount() int {
	count := 0
	for _, item := range t.Checklist {
		if item.Completed {
			count++
		}
	}
	return count
}

// IsAssignee reports whether userID is among the task's assignees.
func (t *Task) IsAssignee(userID uuid.UUID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// IsOverdue reports whether the task is past due and not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// SetAssignees replaces the assignee set, collapsing duplicates.
func (t *Task) SetAssignees(ids []uuid.UUID) error {
	ids = dedupeIDs(ids)
	for _, id := range ids {
		if id == uuid.Nil {
			return ErrInvalidAssignee
		}
	}
	t.AssignedTo = ids
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// StatusForProgress maps a progress percentage onto a status.
func StatusForProgress(progress int) TaskStatus {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func normalizeUpdates(incoming []ChecklistUpdate) ([]ChecklistUpdate, error) {
	normalized := make([]ChecklistUpdate, 0, len(incoming))
	for _, update := range incoming {
		update.Text = strings.TrimSpace(update.Text)
		if update.Text == "" {
			return nil, ErrEmptyChecklistText
		}
		normalized = append(normalized, update)
	}
	return normalized, nil
}

func dedupeUpdates(updates []ChecklistUpdate) []ChecklistUpdate {
	seen := make(map[string]struct{}, len(updates))
	out := make([]ChecklistUpdate, 0, len(updates))
	for _, update := range updates {
		if _, ok := seen[update.Text]; ok {
			continue
		}
		seen[update.Text] = struct{}{}
		out = append(out, update)
	}
	return out
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
