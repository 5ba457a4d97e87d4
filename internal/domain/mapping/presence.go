package mapping

// Columns is anything that can answer whether it has a named column.
type Columns interface {
	HasColumn(name string) bool
}

// Presence classifies active mapping entries by where their fields exist.
// An entry missing on both sides appears in both missing lists.
type Presence struct {
	MissingFromAPI      []Entry
	MissingFromMetadata []Entry
	PresentInBoth       []Entry
}

// Classify runs the presence check over every active entry.
func Classify(entries []Entry, api, metadata Columns) Presence {
	var p Presence
	for _, e := range Active(entries) {
		inAPI := api.HasColumn(e.APIField)
		inMD := metadata.HasColumn(e.CuratorField)
		if !inAPI {
			p.MissingFromAPI = append(p.MissingFromAPI, e)
		}
		if !inMD {
			p.MissingFromMetadata = append(p.MissingFromMetadata, e)
		}
		if inAPI && inMD {
			p.PresentInBoth = append(p.PresentInBoth, e)
		}
	}
	return p
}
