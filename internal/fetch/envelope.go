package fetch

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// jsonEnvelope is the data.go.kr JSON response shape.
type jsonEnvelope struct {
	Response struct {
		Header struct {
			ResultCode *string `json:"resultCode"`
			ResultMsg  string  `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			TotalCount int             `json:"totalCount"`
			Items      json.RawMessage `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

func parseJSONEnvelope(r io.Reader) ([]domain.RawRow, int, error) {
	var env jsonEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, 0, fmt.Errorf("decode response body: %w", err)
	}

	if env.Response.Header.ResultCode == nil {
		return nil, 0, &TerminalError{Msg: "malformed response: missing result code"}
	}
	if *env.Response.Header.ResultCode != resultCodeOK {
		return nil, 0, &TerminalError{Msg: fmt.Sprintf("API error %s: %s",
			*env.Response.Header.ResultCode, env.Response.Header.ResultMsg)}
	}

	rows, err := parseJSONItems(env.Response.Body.Items)
	if err != nil {
		return nil, 0, err
	}
	return rows, env.Response.Body.TotalCount, nil
}

// parseJSONItems handles the portals' inconsistent items shapes: absent,
// an empty string, {"item": {...}} for a single row, or {"item": [...]}.
func parseJSONItems(raw json.RawMessage) ([]domain.RawRow, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte(`""`)) || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	item := bytes.TrimSpace(wrapper.Item)
	if len(item) == 0 || bytes.Equal(item, []byte("null")) {
		return nil, nil
	}

	var objects []map[string]any
	if item[0] == '[' {
		if err := json.Unmarshal(item, &objects); err != nil {
			return nil, fmt.Errorf("decode item list: %w", err)
		}
	} else {
		// A single object instead of a one-element list.
		var single map[string]any
		if err := json.Unmarshal(item, &single); err != nil {
			return nil, fmt.Errorf("decode single item: %w", err)
		}
		objects = []map[string]any{single}
	}

	rows := make([]domain.RawRow, 0, len(objects))
	for _, obj := range objects {
		row := make(domain.RawRow, len(obj))
		for k, v := range obj {
			row[k] = stringify(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stringify flattens JSON scalar values into the string form RawRow expects.
// Numbers keep their shortest representation so "37.5" round-trips.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// xmlEnvelope is the data.go.kr XML response shape. Item fields are
// decoded generically since every dataset has its own element names.
type xmlEnvelope struct {
	Header struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		TotalCount int       `xml:"totalCount"`
		Items      []xmlItem `xml:"items>item"`
	} `xml:"body"`
}

type xmlItem struct {
	Fields []xmlField `xml:",any"`
}

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func parseXMLEnvelope(r io.Reader) ([]domain.RawRow, int, error) {
	var env xmlEnvelope
	if err := xml.NewDecoder(r).Decode(&env); err != nil {
		return nil, 0, fmt.Errorf("decode response body: %w", err)
	}

	if env.Header.ResultCode == "" {
		return nil, 0, &TerminalError{Msg: "malformed response: missing result code"}
	}
	if env.Header.ResultCode != resultCodeOK {
		return nil, 0, &TerminalError{Msg: fmt.Sprintf("API error %s: %s",
			env.Header.ResultCode, env.Header.ResultMsg)}
	}

	rows := make([]domain.RawRow, 0, len(env.Body.Items))
	for _, item := range env.Body.Items {
		row := make(domain.RawRow, len(item.Fields))
		for _, f := range item.Fields {
			row[f.XMLName.Local] = f.Value
		}
		rows = append(rows, row)
	}
	return rows, env.Body.TotalCount, nil
}
