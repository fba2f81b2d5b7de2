package table

import (
	"bytes"
	"encoding/json"
)

// RowsJSON serializes rows [offset, offset+limit) as a JSON array of objects,
// keys in column order. The range is clamped to the table; an empty or
// out-of-range request yields "[]".
func (t *Table) RowsJSON(offset, limit int) ([]byte, error) {
	page := t.Slice(offset, limit)

	keys := make([][]byte, page.Width())
	for i, c := range page.columns {
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for r := 0; r < page.Height(); r++ {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for i, c := range page.columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[i])
			buf.WriteByte(':')
			v, err := json.Marshal(c.values[r].Interface())
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
