package bands

import "encoding/json"

type jsonSegment struct {
	Length int         `json:"length"`
	From   string      `json:"from"`
	To     string      `json:"to"`
	Values [][]float64 `json:"values"`
}

type jsonDocument struct {
	Label string        `json:"label"`
	Path  [][2]string   `json:"path"`
	Paths []jsonSegment `json:"paths"`
}

// prepareJSON renders the bands segment by segment between the stored
// labels, each segment transposed to one array per band. Without at least
// two labels the whole path becomes a single unnamed segment.
func prepareJSON(b *BandStructure, info *plotInfo, o *ExportOptions) (string, map[string]string, error) {
	doc := jsonDocument{Label: b.Label()}

	labels := b.Labels()
	if len(labels) >= 2 {
		for i := 1; i < len(labels); i++ {
			from, to := labels[i-1], labels[i]
			doc.Path = append(doc.Path, [2]string{from.Name, to.Name})
			doc.Paths = append(doc.Paths, jsonSegment{
				Length: to.Index - from.Index,
				From:   from.Name,
				To:     to.Name,
				Values: transpose(info.Bands[from.Index : to.Index+1]),
			})
		}
	} else {
		doc.Path = append(doc.Path, [2]string{"0", "1"})
		doc.Paths = append(doc.Paths, jsonSegment{
			Length: len(info.Bands) - 1,
			From:   "0",
			To:     "1",
			Values: transpose(info.Bands),
		})
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", nil, err
	}
	return string(out), nil, nil
}
