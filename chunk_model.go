package riffwave

// Record is a decoded metadata chunk. The concrete types are InfoList,
// *Display, *Peak, *BroadcastExtension, *Cart and *RawChunk.
type Record interface {
	// Tag is the key the record is stored under.
	Tag() string
}

// Metadata holds one record per distinct tag.
type Metadata map[string]Record

// Info returns the merged LIST/INFO entries, if any.
func (m Metadata) Info() InfoList {
	info, _ := m[infoKey].(InfoList)
	return info
}

// Display returns the DISP record, if any.
func (m Metadata) Display() *Display {
	disp, _ := m[string(CIDDisp[:])].(*Display)
	return disp
}

// Peak returns the PEAK record, if any.
func (m Metadata) Peak() *Peak {
	peak, _ := m[string(CIDPeak[:])].(*Peak)
	return peak
}

// BroadcastExtension returns the bext record, if any.
func (m Metadata) BroadcastExtension() *BroadcastExtension {
	bext, _ := m[string(CIDBext[:])].(*BroadcastExtension)
	return bext
}

// Cart returns the cart record, if any.
func (m Metadata) Cart() *Cart {
	cart, _ := m[string(CIDCart[:])].(*Cart)
	return cart
}

// Raw returns the raw record stored under tag, if any.
func (m Metadata) Raw(tag string) *RawChunk {
	raw, _ := m[tag].(*RawChunk)
	return raw
}

// RawChunk stores a chunk, or a LIST payload, that isn't decoded further.
type RawChunk struct {
	ID   [4]byte
	Data []byte
}

func (c *RawChunk) Tag() string {
	return string(c.ID[:])
}

func (c *RawChunk) Clone() *RawChunk {
	out := *c
	out.Data = append([]byte(nil), c.Data...)

	return &out
}
