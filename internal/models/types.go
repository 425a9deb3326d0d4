package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID accepts both 12 and "12"; the backend is not consistent about it.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("id %q: %w", s, err)
		}
		*id = ID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id %s: %w", string(b), err)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Label is a display value that may arrive as a string, a number or a nested
// object such as {"id": 3, "nom": "Physics"}.
type Label struct {
	ID   ID
	Text string
}

func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*l = Label{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		return json.Unmarshal(b, &l.Text)
	case '{':
		var obj struct {
			ID     ID     `json:"id"`
			Nom    string `json:"nom"`
			Name   string `json:"name"`
			Num    string `json:"num"`
			Level  string `json:"level"`
			Prenom string `json:"prenom"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		l.ID = obj.ID
		switch {
		case obj.Prenom != "" && obj.Nom != "":
			l.Text = obj.Prenom + " " + obj.Nom
		case obj.Nom != "":
			l.Text = obj.Nom
		case obj.Name != "":
			l.Text = obj.Name
		case obj.Num != "":
			l.Text = obj.Num
		default:
			l.Text = obj.Level
		}
		return nil
	default:
		if err := l.ID.UnmarshalJSON(b); err != nil {
			return err
		}
		l.Text = l.ID.String()
		return nil
	}
}

func (l Label) MarshalJSON() ([]byte, error) {
	if l.ID != 0 {
		return json.Marshal(int64(l.ID))
	}
	return json.Marshal(l.Text)
}

func (l Label) String() string {
	if strings.TrimSpace(l.Text) == "" {
		return "N/A"
	}
	return l.Text
}
