package domain

import "time"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "Pending"
	IssueStatusInProgress IssueStatus = "In Progress"
	IssueStatusForReview  IssueStatus = "For Review"
	IssueStatusResolved   IssueStatus = "Resolved"
)

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusPending, IssueStatusInProgress, IssueStatusForReview, IssueStatusResolved:
		return true
	}
	return false
}

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Comment is an immutable entry in an issue's discussion.
type Comment struct {
	ID         string    `json:"id" bson:"id"`
	AuthorID   string    `json:"authorId" bson:"authorId"`
	AuthorName string    `json:"authorName" bson:"authorName"`
	Text       string    `json:"text" bson:"text"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// Issue is the aggregate for a reported civic problem.
//
// ReporterName and AssignedToName are display-name snapshots taken at write
// time; they are never refreshed from the directory.
type Issue struct {
	ID             string      `json:"id" bson:"_id"`
	Title          string      `json:"title" bson:"title"`
	Description    string      `json:"description" bson:"description"`
	Category       string      `json:"category" bson:"category"`
	PhotoURLs      []string    `json:"photoUrls" bson:"photoUrls"`
	Location       Location    `json:"location" bson:"location"`
	Status         IssueStatus `json:"status" bson:"status"`
	CreatedAt      time.Time   `json:"createdAt" bson:"createdAt"`
	ReporterID     string      `json:"reporterId" bson:"reporterId"`
	ReporterName   string      `json:"reporterName" bson:"reporterName"`
	AssignedTo     *string     `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	AssignedToName *string     `json:"assignedToName,omitempty" bson:"assignedToName,omitempty"`
	Comments       []Comment   `json:"comments" bson:"comments"`
	Rating         *int        `json:"rating,omitempty" bson:"rating,omitempty"`
}

// IsAssignedTo reports whether email is the issue's current assignee.
func (i *Issue) IsAssignedTo(email string) bool {
	return i.AssignedTo != nil && *i.AssignedTo == email
}

// Clone returns a deep copy so callers never share slices with a store.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	out := *i
	if i.PhotoURLs != nil {
		out.PhotoURLs = make([]string, len(i.PhotoURLs))
		copy(out.PhotoURLs, i.PhotoURLs)
	}
	if i.Comments != nil {
		out.Comments = make([]Comment, len(i.Comments))
		copy(out.Comments, i.Comments)
	}
	if i.AssignedTo != nil {
		v := *i.AssignedTo
		out.AssignedTo = &v
	}
	if i.AssignedToName != nil {
		v := *i.AssignedToName
		out.AssignedToName = &v
	}
	if i.Rating != nil {
		v := *i.Rating
		out.Rating = &v
	}
	return &out
}

// Assignment names a worker snapshot applied to an issue.
type Assignment struct {
	Email string
	Name  string
}

// IssuePatch is a field-level change set. Nil fields are left untouched;
// comments are appended, never replaced.
type IssuePatch struct {
	Status         *IssueStatus
	Assignment     *Assignment
	Rating         *int
	AppendComments []Comment
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p.Status == nil && p.Assignment == nil && p.Rating == nil && len(p.AppendComments) == 0
}

// Apply merges the patch into the issue in place.
func (i *Issue) Apply(p IssuePatch) {
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.Assignment != nil {
		email, name := p.Assignment.Email, p.Assignment.Name
		i.AssignedTo = &email
		i.AssignedToName = &name
	}
	if p.Rating != nil {
		rating := *p.Rating
		i.Rating = &rating
	}
	if len(p.AppendComments) > 0 {
		i.Comments = append(i.Comments, p.AppendComments...)
	}
}
