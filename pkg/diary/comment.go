package diary

import (
	"encoding/json"
	"fmt"
)

// Comment is a free-text note on a record, optionally timestamped.
// In the canonical JSON form an untimestamped comment is a bare string
// and a timestamped one is a {"time": ..., "text": ...} object.
type Comment struct {
	Time *int64 `json:"time,omitempty"`
	Text string `json:"text"`
}

// MarshalJSON emits a bare string when the comment has no timestamp.
func (c Comment) MarshalJSON() ([]byte, error) {
	if c.Time == nil {
		return json.Marshal(c.Text)
	}
	return json.Marshal(struct {
		Time int64  `json:"time"`
		Text string `json:"text"`
	}{Time: *c.Time, Text: c.Text})
}

// UnmarshalJSON accepts either form.
func (c *Comment) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Text)
	}
	var obj struct {
		Time *int64 `json:"time"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parsing comment: %w", err)
	}
	c.Time = obj.Time
	c.Text = obj.Text
	return nil
}
