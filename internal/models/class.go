package models

// Class represents a grade level taught under a single timetable mode.
type Class struct {
	ID      string        `db:"id" json:"id"`
	Name    string        `db:"name" json:"name"`
	Mode    TimetableMode `db:"mode" json:"mode"`
	Streams []Stream      `db:"-" json:"streams"`
}

// Stream is one parallel section of a class, e.g. Grade 5 East.
type Stream struct {
	ID      string `db:"id" json:"id"`
	ClassID string `db:"class_id" json:"classId"`
	Name    string `db:"name" json:"name"`
}

// ClassStream is the joined view used when emitting slots for a stream.
type ClassStream struct {
	ClassID    string        `db:"class_id" json:"classId"`
	ClassName  string        `db:"class_name" json:"className"`
	StreamID   string        `db:"stream_id" json:"streamId"`
	StreamName string        `db:"stream_name" json:"streamName"`
	Mode       TimetableMode `db:"mode" json:"mode"`
}

// Key returns the scheduling group identifier.
func (c ClassStream) Key() StreamKey {
	return StreamKey{ClassID: c.ClassID, StreamID: c.StreamID}
}
