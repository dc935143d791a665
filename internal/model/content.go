package model

// Collection names one of the three library content sets.
type Collection string

const (
	CollectionStories Collection = "stories"
	CollectionPrompts Collection = "prompts"
	CollectionTools   Collection = "tools"
)

// Collections lists every collection in context-rendering order.
var Collections = []Collection{CollectionPrompts, CollectionStories, CollectionTools}

// ReferenceType returns the lowercase tag used in LIBRARY_ITEM markers.
func (c Collection) ReferenceType() string {
	switch c {
	case CollectionStories:
		return ReferenceTypeStory
	case CollectionPrompts:
		return ReferenceTypePrompt
	case CollectionTools:
		return ReferenceTypeTool
	default:
		return ""
	}
}

// UnknownID is attached to records whose identifier could not be resolved.
const UnknownID = "unknown"

// ContentRecord is a read-only library item. It is implemented only by
// Story, PromptTemplate, and ToolListing.
type ContentRecord interface {
	Collection() Collection
	RecordID() string
	DisplayTitle() string
	WithID(id string) ContentRecord

	contentRecord()
}

type Story struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Attribution string `json:"attribution,omitempty"`
}

type PromptTemplate struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	ShortDescription string `json:"short_description"`
	ExampleText      string `json:"example_text,omitempty"`
}

type ToolListing struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

func (Story) Collection() Collection { return CollectionStories }
func (s Story) RecordID() string     { return s.ID }
func (s Story) DisplayTitle() string { return s.Title }
func (Story) contentRecord()         {}

func (s Story) WithID(id string) ContentRecord {
	s.ID = id
	return s
}

func (PromptTemplate) Collection() Collection { return CollectionPrompts }
func (p PromptTemplate) RecordID() string     { return p.ID }
func (p PromptTemplate) DisplayTitle() string { return p.Title }
func (PromptTemplate) contentRecord()         {}

func (p PromptTemplate) WithID(id string) ContentRecord {
	p.ID = id
	return p
}

func (ToolListing) Collection() Collection { return CollectionTools }
func (t ToolListing) RecordID() string     { return t.ID }
func (t ToolListing) DisplayTitle() string { return t.Name }
func (ToolListing) contentRecord()         {}

func (t ToolListing) WithID(id string) ContentRecord {
	t.ID = id
	return t
}

// Keyword is a lowercased token drawn from the user's message.
type Keyword string

// ScoredRecord pairs a candidate with its relevance score. Score is never negative.
type ScoredRecord struct {
	Record ContentRecord
	Score  int
}
